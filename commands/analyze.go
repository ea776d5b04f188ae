package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pbnjay/memory"
	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/parser"
	"github.com/rayen-mansouri/packet-analyzer/pkg/analysis"
	"github.com/rayen-mansouri/packet-analyzer/pkg/geo"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/reporting"
	"github.com/rayen-mansouri/packet-analyzer/resources"
	"github.com/rayen-mansouri/packet-analyzer/util"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
)

func init() {
	command := cli.Command{
		Name:      "analyze",
		Usage:     "Analyze packet captures and print the threat assessment",
		ArgsUsage: "<capture file or directory> [<capture file or directory>...]",
		Flags: []cli.Flag{
			configFlag,
			humanFlag,
			cli.BoolFlag{
				Name:  "records, r",
				Usage: "treat every input file as a JSON array of packet records",
			},
			cli.StringFlag{
				Name:  "output, o",
				Usage: "write the analysis JSON to `FILE` instead of standard out",
			},
			cli.StringFlag{
				Name:  "report, R",
				Usage: "also write a report folder named `DIR` with JSON and CSV files",
			},
		},
		Action: analyzeCaptures,
	}

	bootstrapCommands(command)
}

func analyzeCaptures(c *cli.Context) error {
	if len(c.Args()) == 0 {
		return cli.NewExitError("Specify at least one capture file or directory", -1)
	}

	res, err := resources.InitResources(c.String("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	if _, err := res.Config.Prepare(); err != nil {
		return cli.NewExitError(err.Error(), -1)
	}

	reader := parser.NewFileReader(res)
	reader.ForceRecords(c.Bool("records"))
	files := reader.Files(c.Args())
	if len(files) == 0 {
		return cli.NewExitError("No supported capture files were found", -1)
	}
	warnIfLarge(res, files)

	records, err := reader.Read(files, func(path string) {
		fmt.Fprintf(os.Stderr, "\t[-] Read %s\n", path)
	})
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}

	analyzer := analysis.NewAnalyzer(res.Log)
	if path := res.Config.S.Graph.GeoIPDatabase; path != "" {
		locator, err := geo.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\t[!] Could not open GeoIP database %s: %s\n", path, err.Error())
		} else {
			defer locator.Close()
			analyzer.SetLocator(locator)
		}
	}

	result, err := runWithProgress(analyzer, records, res.Config)
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}

	env, err := reporting.NewEnvelope(result, strings.Join(files, ","), res.Config.S.Version)
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}

	if dir := c.String("report"); dir != "" {
		out, err := reporting.WriteReport(env, dir)
		if err != nil {
			return cli.NewExitError(err.Error(), -1)
		}
		fmt.Fprintf(os.Stderr, "\t[-] Wrote report to %s\n", out)
	}

	if c.Bool("human-readable") {
		showSummaryHuman(env)
		return renderHuman(reporting.ThreatTable(env.Result))
	}

	if path := c.String("output"); path != "" {
		out, err := os.Create(path)
		if err != nil {
			return cli.NewExitError(err.Error(), -1)
		}
		defer out.Close()
		if err := reporting.WriteJSON(out, env, true); err != nil {
			return cli.NewExitError(err.Error(), -1)
		}
		fmt.Fprintf(os.Stderr, "\t[-] Wrote analysis %s to %s\n", env.ID, path)
		return nil
	}
	return reporting.WriteJSON(os.Stdout, env, true)
}

// runWithProgress runs the analysis with a progress bar over the enabled
// detectors on standard error
func runWithProgress(analyzer *analysis.Analyzer, records []packet.Record, conf *config.Config) (*analysis.Result, error) {
	detectors := analyzer.EnabledDetectors(conf)
	if len(detectors) == 0 {
		return analyzer.Analyze(records, conf)
	}

	p := mpb.New(mpb.WithWidth(20), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(int64(len(detectors)),
		mpb.PrependDecorators(
			decor.Name("\t[-] Threat Detection:", decor.WC{W: 30, C: decor.DidentRight}),
			decor.CountersNoUnit(" %d / %d ", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	start := time.Now()
	analyzer.SetProgress(func(string) {
		bar.IncrBy(1, time.Since(start))
	})
	result, err := analyzer.Analyze(records, conf)
	p.Wait()
	return result, err
}

// warnIfLarge logs a warning when the input is likely to exhaust memory
func warnIfLarge(res *resources.Resources, files []string) {
	var size uint64
	for _, file := range files {
		if info, err := os.Stat(file); err == nil {
			size += uint64(info.Size())
		}
	}
	total := memory.TotalMemory()
	if total > 0 && size > total/4 {
		res.Log.WithFields(log.Fields{
			"input_bytes":  size,
			"memory_bytes": total,
		}).Warn("input exceeds a quarter of system memory")
		fmt.Fprintf(os.Stderr, "\t[!] Input is %s bytes, analysis may run out of memory\n",
			strconv.FormatUint(size, 10))
	}
}

func showSummaryHuman(env *reporting.Envelope) {
	result := env.Result
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Analysis", "Risk Score", "Risk Level", "Packets", "Skipped", "Flows", "Duration"})
	table.Append([]string{
		env.ID,
		strconv.Itoa(result.RiskScore),
		result.ThreatSummary.RiskLevel,
		i(result.Statistics.TotalPackets),
		i(result.Statistics.SkippedPackets),
		strconv.Itoa(result.Statistics.FlowsCount),
		util.FormatDuration(util.SecondsToDuration(result.Statistics.Duration)),
	})
	table.Render()

	for _, concern := range result.ThreatSummary.TopConcerns {
		fmt.Fprintf(os.Stdout, "\t[!] %s\n", concern)
	}
}
