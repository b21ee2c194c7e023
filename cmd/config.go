package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

type envVarDef struct {
	//How this config will be retrieved through viper
	viperKey string
	//How this env var is named in the OS env var space
	envVarName string
	//Whether this env var is critical (absolutely required) for execution
	isCritical bool
	//Explain what this env var is for
	description string
	//The cli commands for which it is used
	cmds []string
}

func (e envVarDef) shouldBeSetFor(cmd string) bool {
	for _, applicableCmd := range e.cmds {
		if applicableCmd == cmd {
			return true
		}
	}
	return false
}

const (
	gatewayFQDN       = "gatewayFQDN"
	gatewayPort       = "gatewayPort"
	gatewayCertFile   = "gatewayCertFile"
	gatewayKeyFile    = "gatewayKeyFile"
	bucketConfigFile  = "bucketConfigFile"
	requestLogLevel   = "requestLogLevel"
	logLevel          = "logLevel"
	metricsPort       = "metricsPort"

	//Environment variables are upper cased
	//Unless they are wellknown environment variables they should be prefixed
	S3FRONT_GATEWAY_FQDN      = "S3FRONT_GATEWAY_FQDN"
	S3FRONT_GATEWAY_PORT      = "S3FRONT_GATEWAY_PORT"
	S3FRONT_GATEWAY_CERT_FILE = "S3FRONT_GATEWAY_CERT_FILE"
	S3FRONT_GATEWAY_KEY_FILE  = "S3FRONT_GATEWAY_KEY_FILE"
	S3FRONT_BUCKET_CONFIG     = "S3FRONT_BUCKET_CONFIG"
	S3FRONT_REQUEST_LOG_LEVEL = "S3FRONT_REQUEST_LOG_LEVEL"
	LOG_LEVEL                 = "LOG_LEVEL"
	S3FRONT_METRICS_PORT      = "S3FRONT_METRICS_PORT"
)

var envVarDefs = []envVarDef{
	{
		gatewayFQDN,
		S3FRONT_GATEWAY_FQDN,
		true,
		`The fully qualified domain name(s) of this gateway (e.g. localhost).
		You can specify multiple to allow access via multiple FQDNs.
		When specifying multiple they must be comma-separated.`,
		[]string{gateway},
	},
	{
		gatewayPort,
		S3FRONT_GATEWAY_PORT,
		true,
		"The port on which this gateway is reachable (e.g. 8443)",
		[]string{gateway},
	},
	{
		gatewayCertFile,
		S3FRONT_GATEWAY_CERT_FILE,
		false,
		"The certificate file used for tls server-side",
		[]string{gateway},
	},
	{
		gatewayKeyFile,
		S3FRONT_GATEWAY_KEY_FILE,
		false,
		"The key file used for tls server-side",
		[]string{gateway},
	},
	{
		bucketConfigFile,
		S3FRONT_BUCKET_CONFIG,
		true,
		"The configuration of which backend serves which bucket. See the sample start config for details how to configure these backends",
		[]string{gateway},
	},
	{
		requestLogLevel,
		S3FRONT_REQUEST_LOG_LEVEL,
		false,
		"The level at which request start and end events are logged (DEBUG, INFO (default), WARN, ERROR)",
		[]string{gateway},
	},
	{
		logLevel,
		LOG_LEVEL,
		false,
		"The Loglevel at which to run (DEBUG, INFO (default), WARN, ERROR)",
		[]string{gateway},
	},
	{
		metricsPort,
		S3FRONT_METRICS_PORT,
		false,
		"The port on which to run the /metrics endpoint",
		[]string{gateway},
	},
}

func getGatewayFQDNs() ([]string, error) {
	var fqdns []string
	err := viper.UnmarshalKey(gatewayFQDN, &fqdns)
	if err != nil {
		return nil, err
	}
	return fqdns, nil
}

func getRequestLogLvl() slog.Level {
	var lvl slog.Level
	lvlStr := viper.GetString(requestLogLevel)
	if lvlStr == "" {
		return slog.LevelInfo
	}
	err := lvl.UnmarshalText([]byte(lvlStr))
	if err != nil {
		slog.Warn("Invalid request log level", "value", lvlStr)
		return slog.LevelInfo
	}
	return lvl
}

//Bind the environment variables for a command
func BindEnvVariables(cmd string) {
	for _, evd := range envVarDefs {
		if evd.shouldBeSetFor(cmd) {
			err := viper.BindEnv(evd.viperKey, evd.envVarName)
			if err != nil {
				panic(err)
			}
			checkViperVarNotEmpty(evd)
		}
	}
}

func checkViperVarNotEmpty(evd envVarDef) {
	r := viper.Get(evd.viperKey)
	if r == nil {
		if evd.isCritical {
			slog.Error("Mandatory key is empty", "viperKey", evd.viperKey, "envVarName", evd.envVarName, "description", evd.description)
			fmt.Printf("key %s[%s] is mandatory, aborting\n", evd.viperKey, evd.envVarName)
			os.Exit(1)
		} else {
			slog.Info("Optional key empty", "viperKey", evd.viperKey, "envVarName", evd.envVarName, "description", evd.description)
		}
	}
}
