package main

import "github.com/cloudharbor/s3front/cmd"

func main() {
	cmd.Execute()
}
