package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/attendo/core"
	"github.com/trezcool/attendo/core/attendance"
	"github.com/trezcool/attendo/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp             = errors.New("help provided")
	errPasswordMismatch = errors.New("passwords do not match")
)

type commandLine struct {
	db         *sql.DB
	usrSvc     user.Service
	attSvc     attendance.Service
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version, fix)")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -name NAME - create a user; the password will be prompted next")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset user's password; the password will be prompted next")
	fmt.Fprintln(cli.out, "  importstudents -file ROSTER.csv - add or update students (register_number,full_name,section)")
	fmt.Fprintln(cli.out, "  parse -file MESSAGE.txt - print the attendance parsed from a message")
	fmt.Fprintln(cli.out, "  mark -file MESSAGE.txt - parse a message and save its attendance")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	importCmd := flag.NewFlagSet("importstudents", flag.ExitOnError)
	importFile := importCmd.String("file", "", "Path of the roster CSV file.")

	parseCmd := flag.NewFlagSet("parse", flag.ExitOnError)
	parseFile := parseCmd.String("file", "", "Path of the attendance message.")

	markCmd := flag.NewFlagSet("mark", flag.ExitOnError)
	markFile := markCmd.String("file", "", "Path of the attendance message.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptNewPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, *addUserName, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptNewPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "importstudents":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(*importFile)

	case "parse":
		if err := parseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *parseFile == "" {
			parseCmd.Usage()
			return errHelp
		}
		return cli.parse(*parseFile)

	case "mark":
		if err := markCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *markFile == "" {
			markCmd.Usage()
			return errHelp
		}
		return cli.mark(*markFile)

	default:
		cli.printUsage()
		return errHelp
	}
}

// promptNewPassword reads a password and its confirmation without echoing them.
func (cli *commandLine) promptNewPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", nil
	}

	fmt.Fprint(cli.out, "Confirm password:")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if string(confirm) != string(pwd) {
		return "", errPasswordMismatch
	}
	return string(pwd), nil
}

// describe formats validation errors one field per line.
func (cli *commandLine) describe(err error) string {
	cause := errors.Cause(err)
	var fields map[string]string
	if vErrs, ok := cause.(validator.ValidationErrors); ok {
		fields = core.TranslateValidationErrors(vErrs, cli.translator)
	} else if vErr, ok := cause.(*core.ValidationError); ok {
		fields = vErr.FieldMap()
	}
	if len(fields) == 0 {
		return err.Error()
	}

	// validator.ValidationErrors is a slice: compare messages, not the errors
	title := "invalid data"
	if msg, causeMsg := err.Error(), cause.Error(); msg != causeMsg {
		title = strings.TrimSuffix(msg, ": "+causeMsg) + ": " + title
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s: %s", name, fields[name]))
	}
	return title + ":\n" + strings.Join(lines, "\n")
}
