package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
)

func TestShouldBeSetFor(t *testing.T) {
	evd := envVarDef{
		viperKey:   gatewayPort,
		envVarName: S3FRONT_GATEWAY_PORT,
		isCritical: true,
		cmds:       []string{gateway},
	}
	if !evd.shouldBeSetFor(gateway) {
		t.Error("Expected env var to be applicable for the gateway command")
	}
	if evd.shouldBeSetFor("another-command") {
		t.Error("Expected env var not to be applicable for other commands")
	}
}

func TestGetRequestLogLvl(t *testing.T) {
	defer viper.Reset()

	viper.Set(requestLogLevel, "")
	if lvl := getRequestLogLvl(); lvl != slog.LevelInfo {
		t.Errorf("Expected INFO as default request log level got %s", lvl)
	}
	viper.Set(requestLogLevel, "DEBUG")
	if lvl := getRequestLogLvl(); lvl != slog.LevelDebug {
		t.Errorf("Expected DEBUG got %s", lvl)
	}
	viper.Set(requestLogLevel, "not-a-level")
	if lvl := getRequestLogLvl(); lvl != slog.LevelInfo {
		t.Errorf("Expected fallback to INFO for garbage input got %s", lvl)
	}
}
