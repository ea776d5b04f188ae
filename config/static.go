package config

import (
	"reflect"

	yaml "gopkg.in/yaml.v2"
)

type (
	//StaticCfg is the container for other static config sections
	StaticCfg struct {
		Log            LogStaticCfg            `yaml:"LogConfig"`
		Input          InputStaticCfg          `yaml:"Input"`
		Timeline       TimelineStaticCfg       `yaml:"Timeline"`
		Graph          GraphStaticCfg          `yaml:"Graph"`
		Scoring        ScoringStaticCfg        `yaml:"Scoring"`
		PortScan       PortScanStaticCfg       `yaml:"PortScan"`
		SynFlood       SynFloodStaticCfg       `yaml:"SynFlood"`
		BruteForce     BruteForceStaticCfg     `yaml:"BruteForce"`
		Beacon         BeaconStaticCfg         `yaml:"Beacon"`
		Credentials    CredentialsStaticCfg    `yaml:"CredentialExposure"`
		SuspiciousPort SuspiciousPortStaticCfg `yaml:"SuspiciousPort"`
		Exfiltration   ExfiltrationStaticCfg   `yaml:"Exfiltration"`
		DNSTunneling   DNSTunnelingStaticCfg   `yaml:"DNSTunneling"`
		Server         ServerStaticCfg         `yaml:"Server"`
		Version        string                  `yaml:"-"`
	}

	//LogStaticCfg contains the configuration for logging
	LogStaticCfg struct {
		LogLevel  int    `yaml:"LogLevel" default:"2"`
		LogPath   string `yaml:"LogPath" default:"/var/lib/packet-analyzer/logs"`
		LogToFile bool   `yaml:"LogToFile" default:"false"`
	}

	//InputStaticCfg controls the normalization adapters. Records touching a
	//NeverInclude subnet are dropped unless the other end is AlwaysInclude'd.
	InputStaticCfg struct {
		PayloadPreviewBytes int      `yaml:"PayloadPreviewBytes" default:"256"`
		AlwaysInclude       []string `yaml:"AlwaysInclude"`
		NeverInclude        []string `yaml:"NeverInclude"`
	}

	//TimelineStaticCfg controls the time bucketing of the capture
	TimelineStaticCfg struct {
		TargetBucketCount int     `yaml:"TargetBucketCount" default:"100"`
		MinBucketWidth    float64 `yaml:"MinBucketWidth" default:"1.0"`
	}

	//GraphStaticCfg controls the host relationship graph
	GraphStaticCfg struct {
		NodeCap       int    `yaml:"NodeCap" default:"50"`
		GeoIPDatabase string `yaml:"GeoIPDatabase"`
	}

	//ScoringStaticCfg controls the risk summary
	ScoringStaticCfg struct {
		TopConcerns int `yaml:"TopConcerns" default:"5"`
	}

	//PortScanStaticCfg is used to control the port scan detector
	PortScanStaticCfg struct {
		Enabled       bool `yaml:"Enabled" default:"true"`
		Threshold     int  `yaml:"Threshold" default:"15"`
		HighThreshold int  `yaml:"HighThreshold" default:"50"`
	}

	//SynFloodStaticCfg is used to control the SYN flood detector
	SynFloodStaticCfg struct {
		Enabled         bool    `yaml:"Enabled" default:"true"`
		CountThreshold  int     `yaml:"CountThreshold" default:"25"`
		WindowSeconds   float64 `yaml:"WindowSeconds" default:"10"`
		RateThreshold   float64 `yaml:"RateThreshold" default:"20"`
		CompletionRatio float64 `yaml:"CompletionRatio" default:"0.2"`
	}

	//BruteForceStaticCfg is used to control the brute force detector.
	//SensitivePorts are added to the built-in FTP, SSH, Telnet and RDP ports.
	BruteForceStaticCfg struct {
		Enabled          bool  `yaml:"Enabled" default:"true"`
		AttemptThreshold int   `yaml:"AttemptThreshold" default:"10"`
		SensitivePorts   []int `yaml:"SensitivePorts"`
	}

	//BeaconStaticCfg is used to control the beaconing detector
	BeaconStaticCfg struct {
		Enabled           bool    `yaml:"Enabled" default:"true"`
		MinOccurrences    int     `yaml:"MinOccurrences" default:"5"`
		VarianceThreshold float64 `yaml:"VarianceThreshold" default:"1.0"`
		MinInterval       float64 `yaml:"MinInterval" default:"1.0"`
		MaxAvgBytes       float64 `yaml:"MaxAvgBytes" default:"1500"`
	}

	//CredentialsStaticCfg is used to control the cleartext credential detector
	CredentialsStaticCfg struct {
		Enabled   bool     `yaml:"Enabled" default:"true"`
		Protocols []string `yaml:"Protocols" default:"[\"HTTP\",\"FTP\",\"Telnet\",\"SMTP\",\"POP3\",\"IMAP\"]"`
	}

	//SuspiciousPortStaticCfg lists destination ports associated with backdoors
	SuspiciousPortStaticCfg struct {
		Enabled bool           `yaml:"Enabled" default:"true"`
		Ports   map[int]string `yaml:"Ports" default:"{\"4444\":\"Remote shell\",\"5555\":\"Reverse shell\",\"6666\":\"IRC botnet\",\"8888\":\"Remote access\",\"31337\":\"Leet backdoor\",\"6379\":\"Redis exploit\"}"`
	}

	//ExfiltrationStaticCfg is used to control the data exfiltration detector
	ExfiltrationStaticCfg struct {
		Enabled       bool  `yaml:"Enabled" default:"true"`
		ByteThreshold int64 `yaml:"ByteThreshold" default:"10485760"`
	}

	//DNSTunnelingStaticCfg is used to control the DNS tunneling detector
	DNSTunnelingStaticCfg struct {
		Enabled          bool     `yaml:"Enabled" default:"true"`
		TrafficRatio     float64  `yaml:"TrafficRatio" default:"0.5"`
		MinQueries       int      `yaml:"MinQueries" default:"20"`
		MaxLabelLength   int      `yaml:"MaxLabelLength" default:"50"`
		EntropyThreshold float64  `yaml:"EntropyThreshold" default:"4.0"`
		IgnoreDomains    []string `yaml:"IgnoreDomains"`
	}

	//ServerStaticCfg controls the HTTP API
	ServerStaticCfg struct {
		ListenAddr   string `yaml:"ListenAddr" default:":8080"`
		MaxBodyBytes int64  `yaml:"MaxBodyBytes" default:"104857600"`
	}
)

// parseStaticConfig deserializes yaml over cfg and expands environment
// variables. cfg should already hold the defaults.
func parseStaticConfig(cfgFile []byte, cfg *StaticCfg) error {
	if err := yaml.Unmarshal(cfgFile, cfg); err != nil {
		return err
	}

	// expand env variables, config is a pointer
	// so we have to call elem on the reflect value
	expandConfig(reflect.ValueOf(cfg).Elem())
	return nil
}
