package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/attendo/core/attendance"
)

func (cli *commandLine) importStudents(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer func() { _ = f.Close() }()

	students, err := attendance.ParseStudentsCSV(f)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		return attendance.ErrEmptyRoster
	}
	for i := range students {
		if err = students[i].Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "row %d", i+2) // +1 for the header
		}
	}

	saved, err := cli.attSvc.ImportStudents(context.Background(), students)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "imported %d students\n", len(saved))
	return nil
}

func (cli *commandLine) readMessage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "reading message")
	}
	return string(data), nil
}

func (cli *commandLine) parse(path string) error {
	text, err := cli.readMessage(path)
	if err != nil {
		return err
	}

	pa := attendance.Parse(text)
	out, err := json.MarshalIndent(pa, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding attendance")
	}
	fmt.Fprintln(cli.out, string(out))
	if err = pa.Check(); err != nil {
		fmt.Fprintln(cli.out, cli.describe(err))
	}
	return nil
}

func (cli *commandLine) mark(path string) error {
	text, err := cli.readMessage(path)
	if err != nil {
		return err
	}

	pa := attendance.Parse(text)
	if err = pa.Validate(cli.validate); err != nil {
		return err
	}
	res, err := cli.attSvc.Mark(context.Background(), pa)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "saved %d records for Section %s, %s %s: %d absent, %d OD, %d late\n",
		res.Count, res.Section, res.Date, res.Session, res.Absent, res.OD, res.Late)
	if len(res.Unmatched) > 0 {
		fmt.Fprintf(cli.out, "not in roster: %s\n", strings.Join(res.Unmatched, ", "))
	}
	return nil
}
