package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yyyoichi/watermark_dsss/internal/pnseq"
)

func (a *app) prnCmd() *cobra.Command {
	var (
		f      keyFlags
		index  int
		length int
	)
	cmd := &cobra.Command{
		Use:   "prn",
		Short: "Print the spreading sequence of one segment",
		Long: `Print the ±1 spreading sequence used for one segment, space separated.
Useful for checking that another implementation derives the same sequence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := *a.cfg
			f.apply(cmd.Flags(), &c)
			key, err := a.key(&c, f.keyHour)
			if err != nil {
				return err
			}
			if index < 0 {
				return fmt.Errorf("index must not be negative: %d", index)
			}
			a.log.Debug("prn", "index", index, "seed", pnseq.Seed(key, index))

			seq := pnseq.Generate(key, index, length)
			parts := make([]string, len(seq))
			for i, v := range seq {
				parts[i] = strconv.Itoa(int(v))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
			return err
		},
	}
	fs := cmd.Flags()
	f.register(fs)
	fs.IntVar(&index, "index", 0, "segment index")
	fs.IntVar(&length, "length", 16, "number of values")
	return cmd
}
