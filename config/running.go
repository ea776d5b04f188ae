package config

import (
	"net"
	"strings"

	"github.com/blang/semver"
	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
	"github.com/rayen-mansouri/packet-analyzer/util"
)

// builtinSensitivePorts are always watched by the brute force detector
var builtinSensitivePorts = map[int]string{
	21:   "FTP",
	22:   "SSH",
	23:   "Telnet",
	3389: "RDP",
}

// credentialServices maps lower case names onto canonical service names
var credentialServices = map[string]string{
	"http":   "HTTP",
	"ftp":    "FTP",
	"telnet": "Telnet",
	"smtp":   "SMTP",
	"pop3":   "POP3",
	"imap":   "IMAP",
}

type (
	//RunningCfg holds configuration options that are parsed at run time
	RunningCfg struct {
		Version            semver.Version
		SensitivePorts     map[int]string
		CredentialServices data.StringSet
		AlwaysIncluded     []*net.IPNet
		NeverIncluded      []*net.IPNet
	}
)

// initRunningConfig derives the runtime values from the static config
func initRunningConfig(static *StaticCfg, running *RunningCfg) error {
	var err error

	running.SensitivePorts = make(map[int]string, len(builtinSensitivePorts)+len(static.BruteForce.SensitivePorts))
	for port, name := range builtinSensitivePorts {
		running.SensitivePorts[port] = name
	}
	for _, port := range static.BruteForce.SensitivePorts {
		if _, ok := running.SensitivePorts[port]; !ok {
			running.SensitivePorts[port] = ""
		}
	}

	running.CredentialServices = make(data.StringSet)
	for _, proto := range static.Credentials.Protocols {
		if canonical, ok := credentialServices[strings.ToLower(proto)]; ok {
			running.CredentialServices.Insert(canonical)
		}
	}

	running.AlwaysIncluded, err = util.ParseSubnets(static.Input.AlwaysInclude)
	if err != nil {
		return err
	}
	running.NeverIncluded, err = util.ParseSubnets(static.Input.NeverInclude)
	if err != nil {
		return err
	}

	running.Version, err = semver.ParseTolerant(static.Version)
	return err
}
