package cmd

import (
	"fmt"
	"log/slog"

	s3frontgateway "github.com/cloudharbor/s3front/gateway"
	"github.com/cloudharbor/s3front/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const gateway = "gateway"

func buildGatewayServer() server.Serverable {
	BindEnvVariables(gateway)

	fqdns, err := getGatewayFQDNs()
	if err != nil {
		slog.Error("Could not get gateway fqdns", "error", err)
		panic(fmt.Sprintf("Could not get gateway fqdns: %s", err))
	}

	s, err := s3frontgateway.NewGatewayServer(
		viper.GetInt(gatewayPort),
		fqdns,
		viper.GetString(gatewayCertFile),
		viper.GetString(gatewayKeyFile),
		viper.GetString(bucketConfigFile),
	)
	if err != nil {
		slog.Error("Could not create gateway server", "error", err)
		panic(fmt.Sprintf("Could not create gateway server: %s", err))
	}
	return s
}

func getServerOptsFromViper() server.ServerOpts {
	return server.ServerOpts{
		MetricsPort:   viper.GetInt(metricsPort),
		RequestLogLvl: getRequestLogLvl(),
	}
}

// gatewayCmd represents the gateway command
var gatewayCmd = &cobra.Command{
	Use:   gateway,
	Short: "Serve the S3-compatible gateway",
	Long: `Spawn a server process that listens for requests and takes API calls
	that follow the S3 API.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.CreateAndStartSync(buildGatewayServer(), getServerOptsFromViper())
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}
