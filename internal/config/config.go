package config

import (
	"fmt"
	"time"

	"github.com/OCAP2/sonar-trainer/internal/echo"
	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/internal/track"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "sonar_trainer.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the in-memory SQLite backend
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// PostgresConfig holds connection settings for the Postgres backend
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`
}

// DSN renders the libpq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=%s`,
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// StorageConfig selects and configures the debrief storage backend
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	Memory   MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
	Traces       bool          `json:"traces" mapstructure:"traces"`
	SampleRatio  float64       `json:"sampleRatio" mapstructure:"sampleRatio"`
	Metrics      bool          `json:"metrics" mapstructure:"metrics"`
	MetricPeriod time.Duration `json:"metricPeriod" mapstructure:"metricPeriod"`
}

// InfluxConfig holds InfluxDB telemetry settings
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// URL is the server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Listen  string `json:"listen" mapstructure:"listen"`
}

// APIConfig controls debrief upload to the review server
type APIConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
	Tag       string `json:"tag" mapstructure:"tag"`
}

// ScriptedCommand is a console command replayed at a given frame
type ScriptedCommand struct {
	Frame   int      `json:"frame" mapstructure:"frame"`
	Command string   `json:"command" mapstructure:"command"`
	Args    []string `json:"args" mapstructure:"args"`
}

// ScenarioConfig drives the headless runner
type ScenarioConfig struct {
	Name          string
	Trainee       string
	Start         core.GeoPoint
	HeadingDeg    float64
	SpeedKnots    float64
	TurnRate      float64 // degrees per second
	Frames        int
	FrameInterval time.Duration
	FixLostFrom   int
	FixLostTo     int
	Commands      []ScriptedCommand
}

// Load reads configuration from the JSON file in configDir and sets
// default values.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./trainerlogs")

	sensor := core.DefaultSensorConfig()
	viper.SetDefault("sensor.maxRange", sensor.MaxRange)
	viper.SetDefault("sensor.unit", string(sensor.Unit))
	viper.SetDefault("sensor.viewportRadius", sensor.ViewportRadiusPx)
	viper.SetDefault("sensor.centerX", sensor.CenterX)
	viper.SetDefault("sensor.centerY", sensor.CenterY)
	viper.SetDefault("sensor.tilt", sensor.TiltDeg)
	viper.SetDefault("sensor.beamHalfWidth", sensor.BeamHalfWidthDeg)
	viper.SetDefault("sensor.hoverRadius", 8.0)

	sig := core.DefaultSignalConfig()
	viper.SetDefault("signal.txPower", sig.TxPower)
	viper.SetDefault("signal.nearTvg", sig.NearTVG)
	viper.SetDefault("signal.farTvg", sig.FarTVG)
	viper.SetDefault("signal.agc1", sig.AGC1)
	viper.SetDefault("signal.agc2", sig.AGC2)
	viper.SetDefault("signal.pulseLength", sig.PulseLength)
	viper.SetDefault("signal.noiseLimiter", sig.NoiseLimiter)
	viper.SetDefault("signal.interferenceReject", sig.InterferenceReject)
	viper.SetDefault("signal.echoAveraging", sig.EchoAveraging)
	viper.SetDefault("signal.beamwidthMode", sig.BeamwidthMode)
	viper.SetDefault("signal.colorCurve", sig.ColorCurve)
	viper.SetDefault("signal.colorResponse", sig.ColorResponse)
	viper.SetDefault("signal.colorErase", sig.ColorErase)

	trk := track.DefaultConfig()
	viper.SetDefault("track.sampleInterval", trk.SampleInterval.String())
	viper.SetDefault("track.maxDistance", trk.MaxDistanceMeters)

	tgt := echo.DefaultTargetConfig()
	viper.SetDefault("target.bearing", tgt.BearingDeg)
	viper.SetDefault("target.range", tgt.RangeMeters)
	viper.SetDefault("target.top", tgt.Top)
	viper.SetDefault("target.bottom", tgt.Bottom)
	viper.SetDefault("target.radius", tgt.Radius)
	viper.SetDefault("target.course", tgt.CourseDeg)
	viper.SetDefault("target.speed", tgt.SpeedKnots)
	viper.SetDefault("target.reflectivity", tgt.Reflectivity)

	viper.SetDefault("session.name", "Training run")
	viper.SetDefault("session.trainee", "")

	viper.SetDefault("scenario.start", "0,0")
	viper.SetDefault("scenario.heading", 0.0)
	viper.SetDefault("scenario.speed", 6.0)
	viper.SetDefault("scenario.turnRate", 0.0)
	viper.SetDefault("scenario.frames", 600)
	viper.SetDefault("scenario.frameInterval", "1s")
	viper.SetDefault("scenario.fixLostFrom", -1)
	viper.SetDefault("scenario.fixLostTo", -1)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./debriefs")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./debriefs/sonar_trainer.db")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "sonar_trainer")
	viper.SetDefault("storage.postgres.sslMode", "disable")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "sonar-trainer")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.traces", false)
	viper.SetDefault("otel.sampleRatio", 1.0)
	viper.SetDefault("otel.metrics", false)
	viper.SetDefault("otel.metricPeriod", "1m")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "sonar-trainer")
	viper.SetDefault("influx.bucket", "echo_telemetry")
	viper.SetDefault("influx.backupPath", "./debriefs/influx_backup.lp.gz")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "localhost:9464")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.tag", "")

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetSensorConfig returns the scope geometry with its signal controls.
func GetSensorConfig() core.SensorConfig {
	return core.SensorConfig{
		MaxRange:         viper.GetFloat64("sensor.maxRange"),
		Unit:             core.ParseRangeUnit(viper.GetString("sensor.unit")),
		ViewportRadiusPx: viper.GetFloat64("sensor.viewportRadius"),
		CenterX:          viper.GetFloat64("sensor.centerX"),
		CenterY:          viper.GetFloat64("sensor.centerY"),
		TiltDeg:          viper.GetFloat64("sensor.tilt"),
		BeamHalfWidthDeg: viper.GetFloat64("sensor.beamHalfWidth"),
		Signal:           GetSignalConfig(),
	}
}

// GetHoverRadius is the cursor hit radius in pixels.
func GetHoverRadius() float64 {
	return viper.GetFloat64("sensor.hoverRadius")
}

// GetSignalConfig returns the receiver controls.
func GetSignalConfig() core.SignalConfig {
	return core.SignalConfig{
		TxPower:            viper.GetFloat64("signal.txPower"),
		NearTVG:            viper.GetFloat64("signal.nearTvg"),
		FarTVG:             viper.GetFloat64("signal.farTvg"),
		AGC1:               viper.GetFloat64("signal.agc1"),
		AGC2:               viper.GetFloat64("signal.agc2"),
		PulseLength:        viper.GetFloat64("signal.pulseLength"),
		NoiseLimiter:       viper.GetFloat64("signal.noiseLimiter"),
		InterferenceReject: viper.GetFloat64("signal.interferenceReject"),
		EchoAveraging:      viper.GetInt("signal.echoAveraging"),
		BeamwidthMode:      viper.GetInt("signal.beamwidthMode"),
		ColorCurve:         viper.GetInt("signal.colorCurve"),
		ColorResponse:      viper.GetInt("signal.colorResponse"),
		ColorErase:         viper.GetInt("signal.colorErase"),
	}
}

// GetTrackConfig returns the own-ship track settings.
func GetTrackConfig() track.Config {
	return track.Config{
		SampleInterval:    viper.GetDuration("track.sampleInterval"),
		MaxDistanceMeters: viper.GetFloat64("track.maxDistance"),
	}
}

// GetTargetConfig returns the simulated target placement.
func GetTargetConfig() echo.TargetConfig {
	return echo.TargetConfig{
		BearingDeg:   viper.GetFloat64("target.bearing"),
		RangeMeters:  viper.GetFloat64("target.range"),
		Top:          viper.GetFloat64("target.top"),
		Bottom:       viper.GetFloat64("target.bottom"),
		Radius:       viper.GetFloat64("target.radius"),
		CourseDeg:    viper.GetFloat64("target.course"),
		SpeedKnots:   viper.GetFloat64("target.speed"),
		Reflectivity: viper.GetFloat64("target.reflectivity"),
	}
}

// GetScenarioConfig returns the headless scenario. scenario.start is "lon,lat".
func GetScenarioConfig() (ScenarioConfig, error) {
	start, err := geo.GeoPointFromString(viper.GetString("scenario.start"))
	if err != nil {
		return ScenarioConfig{}, fmt.Errorf("scenario.start: %w", err)
	}

	var cmds []ScriptedCommand
	if err := viper.UnmarshalKey("scenario.commands", &cmds); err != nil {
		return ScenarioConfig{}, fmt.Errorf("scenario.commands: %w", err)
	}

	return ScenarioConfig{
		Name:          viper.GetString("session.name"),
		Trainee:       viper.GetString("session.trainee"),
		Start:         start,
		HeadingDeg:    viper.GetFloat64("scenario.heading"),
		SpeedKnots:    viper.GetFloat64("scenario.speed"),
		TurnRate:      viper.GetFloat64("scenario.turnRate"),
		Frames:        viper.GetInt("scenario.frames"),
		FrameInterval: viper.GetDuration("scenario.frameInterval"),
		FixLostFrom:   viper.GetInt("scenario.fixLostFrom"),
		FixLostTo:     viper.GetInt("scenario.fixLostTo"),
		Commands:      cmds,
	}, nil
}

// GetStorageConfig returns the debrief storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
			SSLMode:  viper.GetString("storage.postgres.sslMode"),
		},
	}
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
		Traces:       viper.GetBool("otel.traces"),
		SampleRatio:  viper.GetFloat64("otel.sampleRatio"),
		Metrics:      viper.GetBool("otel.metrics"),
		MetricPeriod: viper.GetDuration("otel.metricPeriod"),
	}
}

// GetInfluxConfig returns InfluxDB telemetry settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetMetricsConfig returns the Prometheus endpoint settings.
func GetMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: viper.GetBool("metrics.enabled"),
		Listen:  viper.GetString("metrics.listen"),
	}
}

// GetAPIConfig returns the debrief upload settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		Enabled:   viper.GetBool("api.enabled"),
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Tag:       viper.GetString("api.tag"),
	}
}
