package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/erx/erx/internal/domain/auditevent"
	"github.com/erx/erx/internal/domain/billing"
	"github.com/erx/erx/internal/domain/communication"
	"github.com/erx/erx/internal/domain/dosage"
	"github.com/erx/erx/internal/domain/medication"
	"github.com/erx/erx/internal/domain/schedule"
	"github.com/erx/erx/internal/domain/task"
	"github.com/erx/erx/internal/platform/db"
	"github.com/erx/erx/internal/platform/fhir"
	"github.com/erx/erx/internal/platform/fhirsync"
)

// parsers maps the kind argument of "erx parse" to the service call that
// extracts it from raw JSON.
func parsers(logger zerolog.Logger) map[string]func(data []byte) (interface{}, error) {
	tasks := task.NewService(logger)
	meds := medication.NewService(logger)
	bills := billing.NewService(logger)
	audits := auditevent.NewService(logger)
	comms := communication.NewService(logger)
	return map[string]func(data []byte) (interface{}, error){
		"task":          func(d []byte) (interface{}, error) { return tasks.ExtractTasks(d) },
		"prescription":  func(d []byte) (interface{}, error) { return tasks.ExtractPrescriptionBundle(d) },
		"dispense":      func(d []byte) (interface{}, error) { return meds.ExtractDispenses(d) },
		"medication":    func(d []byte) (interface{}, error) { return meds.ExtractMedication(d) },
		"chargeitem":    func(d []byte) (interface{}, error) { return bills.ExtractChargeItems(d) },
		"dispense-data": func(d []byte) (interface{}, error) { return bills.ExtractDispenseData(d) },
		"auditevent":    func(d []byte) (interface{}, error) { return audits.ExtractAuditEvents(d) },
		"communication": func(d []byte) (interface{}, error) { return comms.ExtractCommunications(d) },
	}
}

func parserKinds() []string {
	var kinds []string
	for k := range parsers(zerolog.Nop()) {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func writeJSON(w io.Writer, v interface{}, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <kind> <file|->",
		Short: "Extract records from a FHIR JSON file",
		Long:  "Extract records from a FHIR JSON file. Kinds: " + strings.Join(parserKinds(), ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			parse, ok := parsers(logger)[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown kind %q (want one of %s)", args[0], strings.Join(parserKinds(), ", "))
			}
			data, err := readInput(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			out, err := parse(data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out, true)
		},
	}
}

func dosageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dosage <text>",
		Short: "Parse a dosage instruction such as \"1-0-1\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), dosage.ParseText(args[0]), true)
		},
	}
}

type scheduleFlags struct {
	amount   string
	dosage   string
	interval string
	days     int
	weekdays string
	start    string
}

// build turns the flags into a schedule starting at the given day in loc.
func (f scheduleFlags) build(loc *time.Location) (schedule.Schedule, time.Time, error) {
	start := time.Now().In(loc)
	if f.start != "" {
		t, err := time.ParseInLocation("2006-01-02", f.start, loc)
		if err != nil {
			return schedule.Schedule{}, start, fmt.Errorf("--start: %w", err)
		}
		start = t
	}
	if _, ok := dosage.ParseAmount(f.amount); !ok {
		return schedule.Schedule{}, start, fmt.Errorf("--amount %q is not a number", f.amount)
	}
	amount := &fhir.Ratio{Numerator: &fhir.Quantity{Value: f.amount}}

	s := schedule.FromInstruction(dosage.ParseText(f.dosage), amount, start)
	switch f.interval {
	case "", string(schedule.IntervalDaily):
	case string(schedule.IntervalEveryNDays):
		if f.days < 1 {
			return s, start, fmt.Errorf("--days must be at least 1")
		}
		s.Interval = schedule.EveryNDays(f.days)
	case string(schedule.IntervalPersonalized):
		days, err := schedule.ParseWeekdays(f.weekdays)
		if err != nil {
			return s, start, err
		}
		s.Interval = schedule.OnWeekdays(days...)
	default:
		return s, start, fmt.Errorf("unknown interval %q", f.interval)
	}
	return s, start, nil
}

func scheduleCmd() *cobra.Command {
	var f scheduleFlags
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute the day a pack runs out",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			s, start, err := f.build(loc)
			if err != nil {
				return err
			}
			end := schedule.CalculateEndOfPack(s, start)
			fmt.Fprintln(cmd.OutOrStdout(), end.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&f.amount, "amount", "", "Pack size (number of units)")
	cmd.Flags().StringVar(&f.dosage, "dosage", "1", "Dosage instruction, e.g. 1-0-1")
	cmd.Flags().StringVar(&f.interval, "interval", "daily", "daily, every-n-days or personalized")
	cmd.Flags().IntVar(&f.days, "days", 2, "Day step for every-n-days")
	cmd.Flags().StringVar(&f.weekdays, "weekdays", "", "Comma separated weekdays for personalized, e.g. mon,thu")
	cmd.Flags().StringVar(&f.start, "start", "", "First day (YYYY-MM-DD), defaults to today")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func syncCmd() *cobra.Command {
	var baseURL, token string
	cmd := &cobra.Command{
		Use:   "sync <kind>",
		Short: "Download new resources of a kind and print them as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			kind, err := fhirsync.ParseKind(args[0])
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.FHIRBaseURL
			}
			if token == "" {
				token = cfg.AccessToken
			}
			if baseURL == "" {
				return fmt.Errorf("FHIR_BASE_URL or --base-url is required")
			}
			profile, err := fhirsync.ProfileFromToken(token)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var store fhirsync.WatermarkStore = fhirsync.NewMemoryWatermarkStore()
			if cfg.UseDatabase() {
				pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBSchema)
				if err != nil {
					return err
				}
				defer pool.Close()
				store = fhirsync.NewWatermarkStorePG(pool)
			}

			fetcher := fhirsync.NewHTTPFetcher(baseURL, token, cfg.HTTPTimeout)
			d := fhirsync.NewDownloader(fetcher.For, store, cfg.PageSize, logger)
			res, err := d.Run(ctx, profile, kind, recordSink(cmd.OutOrStdout(), logger))
			if err != nil {
				return err
			}
			logger.Info().Int("pages", res.Pages).Int("resources", res.Resources).Msg("sync complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "FHIR endpoint, defaults to FHIR_BASE_URL")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token, defaults to FHIR_ACCESS_TOKEN")
	return cmd
}

// recordSink extracts the records of every downloaded page and writes them
// to w, one JSON document per line. Entry failures are logged and skipped.
func recordSink(w io.Writer, logger zerolog.Logger) fhirsync.Sink {
	return func(_ context.Context, kind fhirsync.Kind, page *fhir.Bundle) error {
		ix := fhir.NewIndex(page)
		switch kind {
		case fhirsync.KindTask:
			return emit(w, logger, fhir.ExtractAll[task.TaskRecord](ix, string(kind), task.ExtractTask))
		case fhirsync.KindMedicationDispense:
			return emit(w, logger, medication.ExtractDispenseBundle(ix))
		case fhirsync.KindChargeItem:
			return emit(w, logger, fhir.ExtractAll[billing.ChargeItemRecord](ix, string(kind), billing.ExtractChargeItem))
		case fhirsync.KindAuditEvent:
			return emit(w, logger, fhir.ExtractAll[auditevent.AuditEventRecord](ix, string(kind), auditevent.ExtractAuditEvent))
		case fhirsync.KindCommunication:
			return emit(w, logger, fhir.ExtractAll[communication.CommunicationRecord](ix, string(kind), communication.ExtractCommunication))
		}
		return fmt.Errorf("%w: %s", fhirsync.ErrUnknownResourceKind, kind)
	}
}

func emit[T any](w io.Writer, logger zerolog.Logger, batch fhir.Batch[T]) error {
	for _, f := range batch.Failures {
		logger.Warn().Int("position", f.Position).Str("resource_id", f.ResourceID).Str("error", f.Error).Msg("entry skipped")
	}
	for _, rec := range batch.Records {
		if err := writeJSON(w, rec, false); err != nil {
			return err
		}
	}
	return nil
}
