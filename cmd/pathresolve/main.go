// Command pathresolve prints which strip and pixel a walkway distance lights,
// for checking a strip layout against the installation.
//
//	pathresolve -c pathglow.yaml 2.0 0.1 -- -0.3
//
// Without arguments, distances are read one per line from stdin.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/coreman2200/pathglow/internal/config"
	"github.com/coreman2200/pathglow/internal/layout"
)

var (
	configPath = "pathglow.yaml"
	prev       = false
	list       = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "configuration file")
	pflag.BoolVarP(&prev, "prev", "p", prev, "treat distances as distance from the previous landmark")
	pflag.BoolVarP(&list, "list", "l", list, "list the assembled strips and exit")
}

func main() {
	pflag.Parse()
	if err := run(os.Stdout, os.Stdin, pflag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(out io.Writer, in io.Reader, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	strips, err := cfg.Layout()
	if err != nil {
		return err
	}

	if list {
		return listStrips(out, strips)
	}

	if len(args) == 0 {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				args = append(args, line)
			}
		}
		if err := sc.Err(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DISTANCE\tCHANNEL\tPIXEL\tSTRIP")
	for _, a := range args {
		d, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return errors.Wrapf(err, "distance %q", a)
		}
		fmt.Fprintln(w, resolveLine(strips, d, prev))
	}
	return w.Flush()
}

func resolveLine(strips []layout.Strip, d float64, prev bool) string {
	at := d
	if prev {
		at = -d
	}
	h, ok := layout.Resolve(strips, at)
	if !ok {
		return fmt.Sprintf("%g\t-\t-\t-", d)
	}
	return fmt.Sprintf("%g\t%d\t%d\t%s", d, h.Channel(), h.Index, h.Strip)
}

func listStrips(out io.Writer, strips []layout.Strip) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tFROM\tTO\tPIXELS\tREVERSED")
	for _, s := range strips {
		fmt.Fprintf(w, "%d\t%g\t%g\t%d\t%t\n", s.Channel, s.Offset-s.Length, s.Offset, s.Count(), s.Reversed)
	}
	return w.Flush()
}
