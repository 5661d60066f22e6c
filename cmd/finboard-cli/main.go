// Command finboard-cli signs in against the finance API and prints or
// exports the dashboard from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"finboard/internal/backend"
	"finboard/internal/cli"
	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/render"
	"finboard/internal/sheets"
	gsheet "finboard/internal/sheets/google"
	"finboard/internal/sheets/memory"
)

const usage = `usage: finboard-cli <command> [flags]

commands:
  login  -u <username or email> -p <password>
  signup -u <username> -e <email> -p <password> [-confirm <password>]
  logout
  report
  export [-year YYYY] [-month M] [-dry-run]
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentCLI)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stack, err := backend.NewStack(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backends", log.FieldError, err)
		os.Exit(1)
	}

	err = run(ctx, os.Args[1], os.Args[2:], stack, cfg, logger, os.Stdout)
	if cerr := stack.Close(); cerr != nil {
		logger.Warn("Backend close error", log.FieldError, cerr)
	}
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func run(ctx context.Context, cmd string, args []string, stack *backend.Stack, cfg *config.Config, logger *log.Logger, out io.Writer) error {
	switch cmd {
	case "login":
		creds, err := parseLogin(args)
		if err != nil {
			return err
		}
		user, err := stack.Auth.Login(ctx, creds)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Signed in as %s\n", user.Username)
	case "signup":
		creds, err := parseSignup(args)
		if err != nil {
			return err
		}
		user, err := stack.Auth.Signup(ctx, creds)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Account created for %s\n", user.Username)
	case "logout":
		if err := stack.Auth.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out")
	case "report":
		return report(ctx, stack, out)
	case "export":
		opts, err := parseExport(args)
		if err != nil {
			return err
		}
		return export(ctx, stack, cfg, logger, opts, out)
	default:
		return usageError{msg: fmt.Sprintf("unknown command %q", cmd)}
	}
	return nil
}

func report(ctx context.Context, stack *backend.Stack, out io.Writer) error {
	if !stack.Auth.IsAuthenticated(ctx) {
		return errors.New("not signed in, run finboard-cli login first")
	}
	view, err := stack.Dashboard.Load(ctx)
	if err != nil {
		return err
	}
	forecast, err := stack.Forecast.Monthly(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, render.New(out).Dashboard(view, forecast))
	return nil
}

func export(ctx context.Context, stack *backend.Stack, cfg *config.Config, logger *log.Logger, opts exportOptions, out io.Writer) error {
	if !stack.Auth.IsAuthenticated(ctx) {
		return errors.New("not signed in, run finboard-cli login first")
	}
	var writer sheets.ReportWriter
	if opts.dryRun {
		writer = memory.New()
	} else {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			return err
		}
		writer = client
	}
	refs, err := stack.Exporter(writer).Export(ctx, opts.year, opts.month)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		fmt.Fprintln(out, ref)
	}
	return nil
}

func parseLogin(args []string) (core.LoginCredentials, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var creds core.LoginCredentials
	fs.StringVar(&creds.UsernameOrEmail, "u", "", "username or email")
	fs.StringVar(&creds.Password, "p", "", "password")
	if err := fs.Parse(args); err != nil {
		return creds, usageError{msg: err.Error()}
	}
	return creds, nil
}

func parseSignup(args []string) (core.SignupCredentials, error) {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var creds core.SignupCredentials
	fs.StringVar(&creds.Username, "u", "", "username")
	fs.StringVar(&creds.Email, "e", "", "email")
	fs.StringVar(&creds.Password, "p", "", "password")
	fs.StringVar(&creds.ConfirmPassword, "confirm", "", "password confirmation (defaults to -p)")
	if err := fs.Parse(args); err != nil {
		return creds, usageError{msg: err.Error()}
	}
	if creds.ConfirmPassword == "" {
		creds.ConfirmPassword = creds.Password
	}
	return creds, nil
}

type exportOptions struct {
	year, month int
	dryRun      bool
}

func parseExport(args []string) (exportOptions, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opts exportOptions
	fs.IntVar(&opts.year, "year", 0, "report year (default: current)")
	fs.IntVar(&opts.month, "month", 0, "report month (default: current)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "build the report in memory without writing to Google Sheets")
	if err := fs.Parse(args); err != nil {
		return opts, usageError{msg: err.Error()}
	}
	return opts, nil
}
