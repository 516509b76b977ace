package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ValentinKolb/rKV/rpc/client"
	"github.com/spf13/cobra"
)

var (
	execCmd = &cobra.Command{
		Use:   "exec [command] [args...]",
		Short: "Executes one command and prints the reply",
		Example: `  rkv cli exec SET greeting hello EX 60
  rkv cli exec ZRANGE board 0 -1 WITHSCORES`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer rpcClient.Close()
			return execute(cmd.Context(), os.Stdout, args)
		},
	}
	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Reads commands from stdin, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer rpcClient.Close()
			return shell(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
)

// execute sends one command and prints the reply. ERROR replies are printed
// and not returned as error.
func execute(ctx context.Context, out io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reply, err := rpcClient.DoStrings(ctx, args...)
	if err != nil && client.ReplyError(reply) == nil {
		return err
	}
	_, err = fmt.Fprintln(out, reply.String())
	return err
}

// shell executes every non-empty line of in until EOF or "quit"
func shell(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	prompt := fmt.Sprintf("rkv[%d]> ", rpcClient.DB())

	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		args, err := splitArgs(scanner.Text())
		switch {
		case err != nil:
			fmt.Fprintf(out, "(error) %v\n", err)
		case len(args) == 0:
		case strings.EqualFold(args[0], "quit") || strings.EqualFold(args[0], "exit"):
			return nil
		default:
			if err := execute(ctx, out, args); err != nil {
				return err
			}
		}
		fmt.Fprint(out, prompt)
	}
	return scanner.Err()
}

// splitArgs splits a line into arguments. Arguments are separated by white
// space; double and single quotes group words, inside double quotes the
// escapes \" \\ \n \r and \t are supported.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			switch r {
			case 'n':
				current.WriteRune('\n')
			case 'r':
				current.WriteRune('\r')
			case 't':
				current.WriteRune('\t')
			default:
				current.WriteRune(r)
			}
			escaped = false
		case quote == '"' && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 || escaped {
		return nil, errors.New("unbalanced quotes")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
