package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/slot"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/services/export"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	authSvc  *auth.Service
	ttSvc    *timetable.Service
	availSvc *availability.Service
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  login - log in and print the session token")
	_, _ = fmt.Fprintln(cli.out, "  grid -class NAME [-token TOKEN] - print the timetable of a class")
	_, _ = fmt.Fprintln(cli.out, "  giant [-class A,B] -out FILE.pdf|FILE.xlsx [-token TOKEN] - export the giant timetable")
	_, _ = fmt.Fprintln(cli.out, "  reset-availability [-token TOKEN] - reset every availability record")
	_, _ = fmt.Fprintln(cli.out, "  slot -day D -period P | slot -index I - convert between (day, period) and slot index")
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := cli.flagSet("login")

	gridCmd := cli.flagSet("grid")
	gridClass := gridCmd.String("class", "", "The class to print.")
	gridToken := gridCmd.String("token", "", "A session token. The password is prompted when omitted.")

	giantCmd := cli.flagSet("giant")
	giantClasses := giantCmd.String("class", "", "Comma separated classes. Every class when omitted.")
	giantOut := giantCmd.String("out", "", "The file to write; its extension (.pdf or .xlsx) picks the format.")
	giantToken := giantCmd.String("token", "", "A session token. The password is prompted when omitted.")

	resetCmd := cli.flagSet("reset-availability")
	resetToken := resetCmd.String("token", "", "A session token. The password is prompted when omitted.")

	slotCmd := cli.flagSet("slot")
	slotDay := slotCmd.Int("day", -1, "The day, 0 (Monday) to 4 (Friday).")
	slotPeriod := slotCmd.Int("period", -1, "The period, 0 to 6.")
	slotIndex := slotCmd.Int("index", -1, "A slot index, 0 to 34.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		token, err := cli.login(context.Background())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cli.out, token)
		return nil
	case "grid":
		if err := gridCmd.Parse(args[2:]); err != nil {
			return err
		}
		if core.CleanString(*gridClass) == "" {
			gridCmd.Usage()
			return errHelp
		}
		ctx, err := cli.session(*gridToken)
		if err != nil {
			return err
		}
		return cli.grid(ctx, *gridClass)
	case "giant":
		if err := giantCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *giantOut == "" {
			giantCmd.Usage()
			return errHelp
		}
		ctx, err := cli.session(*giantToken)
		if err != nil {
			return err
		}
		return cli.giant(ctx, core.SplitList(*giantClasses), *giantOut)
	case "reset-availability":
		if err := resetCmd.Parse(args[2:]); err != nil {
			return err
		}
		ctx, err := cli.session(*resetToken)
		if err != nil {
			return err
		}
		if err := cli.availSvc.Reset(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cli.out, "availability reset")
		return nil
	case "slot":
		if err := slotCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.slot(*slotDay, *slotPeriod, *slotIndex, slotCmd)
	default:
		cli.printUsage()
		return errHelp
	}
}

// login prompts for the admin password and opens a session.
func (cli *commandLine) login(ctx context.Context) (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	token, _, err := cli.authSvc.Login(ctx, auth.LoginRequest{Password: string(pwd)})
	return token, err
}

// session returns a context carrying token, logging in first when it is empty.
func (cli *commandLine) session(token string) (context.Context, error) {
	ctx := context.Background()
	if token == "" {
		var err error
		if token, err = cli.login(ctx); err != nil {
			return nil, err
		}
	}
	return auth.NewContext(ctx, token), nil
}

func (cli *commandLine) grid(ctx context.Context, class string) error {
	tt, err := cli.ttSvc.Timetable(ctx, class)
	if err != nil {
		return err
	}
	sched := tt.Schedule()

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Timetable - %s\n", tt.ClassID)
	_, _ = fmt.Fprintf(w, "Day\t%s\n", strings.Join(slot.PeriodLabels[:], "\t"))
	for d, day := range slot.Days {
		cells := make([]string, slot.PeriodsPerDay)
		for p := range cells {
			if cells[p] = sched[slot.MustFlatIndex(d, p)]; cells[p] == "" {
				cells[p] = "-"
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", day, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func (cli *commandLine) giant(ctx context.Context, classes []string, out string) (err error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(out), "."))
	if ext != "pdf" && ext != "xlsx" {
		return fmt.Errorf("unsupported export format %q, use .pdf or .xlsx", ext)
	}

	shown, g, err := cli.ttSvc.Giant(ctx, classes)
	if err != nil {
		return err
	}
	t := export.FromGiant(shown, g)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if ext == "xlsx" {
		err = export.XLSX(f, t.Title, t)
	} else {
		err = export.PDF(f, t)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%s: %d classes, %d conflicting slots\n", out, len(shown), len(g.Conflicts()))
	return nil
}

func (cli *commandLine) slot(day, period, index int, fs *flag.FlagSet) error {
	switch {
	case index >= 0:
		d, p, err := slot.Decode(slot.Index(index))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "day=%d period=%d (%s)\n", d, p, slot.Index(index))
	case day >= 0 && period >= 0:
		i, err := slot.FlatIndex(day, period)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "%d (%s)\n", i, i)
	default:
		fs.Usage()
		return errHelp
	}
	return nil
}
