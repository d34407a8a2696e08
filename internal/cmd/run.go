package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-fba/internal/logging"
	"github.com/askiada/go-fba/internal/record"
	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/pipeline"
	"github.com/askiada/go-fba/pkg/pipeline/config"
	"github.com/askiada/go-fba/pkg/pipeline/drawer"
	"github.com/askiada/go-fba/pkg/pipeline/measure"
	"github.com/askiada/go-fba/pkg/pipeline/model"
	"github.com/askiada/go-fba/pkg/report"
)

const (
	resultFile  = "result.json"
	reportFile  = "report.html"
	stagesFile  = "stages.dot"
	networkFile = "network.dot"
)

type runOptions struct {
	modelPath  string
	mediaPath  string
	paramsPath string
	outDir     string
	dbPath     string
	draw       bool
}

func newRunCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the FBA pipeline on a model",
		Long: `Run loads a model, a media and a parameter document, runs the pipeline and writes
result.json and report.html to the output directory.

Models and media are read as YAML when the file ends with .yaml or .yml, as JSON
otherwise. Parameters are a flat YAML or JSON mapping.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := runOptions{
				modelPath:  v.GetString("model"),
				mediaPath:  v.GetString("media"),
				paramsPath: v.GetString("params"),
				outDir:     v.GetString("out"),
				dbPath:     v.GetString("db"),
				draw:       v.GetBool("draw"),
			}

			logger, closer, err := logging.New(logConfig(v), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			sum, err := run(cmd.Context(), logger, opts)
			if err != nil {
				return err
			}

			return printSummary(cmd.OutOrStdout(), sum)
		},
	}

	flags := cmd.Flags()
	flags.String("model", "", "model file")
	flags.String("media", "", "media file")
	flags.String("params", "", "parameter file")
	flags.StringP("out", "o", ".", "output directory")
	flags.String("db", "", "SQLite database storing the run record")
	flags.Bool("draw", false, "write DOT graphs of the stages and of the flux network")
	for _, name := range []string{"model", "media", "params", "out", "db", "draw"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	return cmd
}

func run(ctx context.Context, logger logrus.FieldLogger, opts runOptions) (*summary, error) {
	required := []struct{ flag, path string }{
		{"model", opts.modelPath},
		{"media", opts.mediaPath},
		{"params", opts.paramsPath},
	}
	for _, r := range required {
		if r.path == "" {
			return nil, errors.Errorf("--%s is required", r.flag)
		}
	}

	m, err := metabolic.LoadModel(opts.modelPath)
	if err != nil {
		return nil, err
	}
	media, err := metabolic.LoadMedia(opts.mediaPath)
	if err != nil {
		return nil, err
	}
	raw, err := loadParams(opts.paramsPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Build(raw)
	if err != nil {
		return nil, err
	}

	media = media.WithSupplements(cfg.MediaSupplementIDs)
	opened, err := media.ApplyTo(m)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to apply media %s", media.ID)
	}
	logger.WithFields(logrus.Fields{"media": media.ID, "exchanges": len(opened)}).Debug("media applied")

	err = os.MkdirAll(opts.outDir, 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", opts.outDir)
	}

	msr := measure.NewDefaultMeasure()
	hooks := []model.PipelineOption{measure.PipelineMeasure(msr)}
	if opts.draw {
		f, err := os.Create(filepath.Join(opts.outDir, stagesFile))
		if err != nil {
			return nil, errors.Wrap(err, "unable to create stage graph")
		}
		defer f.Close()
		hooks = append(hooks, drawer.PipelineDrawer(drawer.NewDOTDrawer(f), msr))
	}

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger), pipeline.WithHooks(hooks...))
	if err != nil {
		return nil, err
	}
	res, err := p.Run(ctx, m, media)
	if err != nil {
		return nil, err
	}

	err = writeFile(filepath.Join(opts.outDir, resultFile), func(w io.Writer) error {
		return writeResult(w, cfg, m.ID, media.ID, res)
	})
	if err != nil {
		return nil, err
	}
	err = writeFile(filepath.Join(opts.outDir, reportFile), func(w io.Writer) error {
		return report.Write(w, report.Input{Model: m, MediaID: media.ID, Config: cfg, Result: res})
	})
	if err != nil {
		return nil, err
	}
	if opts.draw {
		err = writeFile(filepath.Join(opts.outDir, networkFile), func(w io.Writer) error {
			network, err := m.Network()
			if err != nil {
				return err
			}

			fluxes := map[string]float64{}
			if res.Optimal() {
				fluxes = res.Solution.FluxMap()
			}

			return drawer.DrawNetwork(w, network, fluxes)
		})
		if err != nil {
			return nil, err
		}
	}

	sum := newSummary(m.ID, media.ID, cfg, res, msr)
	if opts.dbPath != "" {
		rec, err := saveRecord(ctx, opts.dbPath, cfg, m.ID, media.ID, res)
		if err != nil {
			return nil, err
		}
		sum.RecordID = rec.ID
	}

	return sum, nil
}

// logConfig reads keys one by one, UnmarshalKey ignores nested keys bound to flags.
func logConfig(v *viper.Viper) logging.Config {
	return logging.Config{
		Level:      v.GetString("log.level"),
		Format:     v.GetString("log.format"),
		File:       v.GetString("log.file"),
		MaxSize:    v.GetInt("log.max_size"),
		MaxBackups: v.GetInt("log.max_backups"),
		MaxAge:     v.GetInt("log.max_age"),
		Compress:   v.GetBool("log.compress"),
		Caller:     v.GetBool("log.caller"),
	}
}

// loadParams reads a flat parameter mapping. JSON documents are valid YAML.
func loadParams(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open params %s", path)
	}
	defer f.Close()

	raw := map[string]any{}
	err = yaml.NewDecoder(f).Decode(&raw)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "unable to decode params %s", path)
	}

	return raw, nil
}

func saveRecord(ctx context.Context, path string, cfg config.PipelineConfig, modelID, mediaID string, res *pipeline.Result) (*record.Record, error) {
	s, err := record.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if cfg.OutputID == "" {
		cfg.OutputID = modelID + "." + mediaID
	}
	rec := record.FromResult(cfg, modelID, mediaID, res, record.NewReportName())
	err = s.Save(ctx, rec)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	err = write(f)
	if err != nil {
		_ = f.Close()

		return errors.Wrapf(err, "unable to write %s", path)
	}

	return errors.Wrapf(f.Close(), "unable to close %s", path)
}
