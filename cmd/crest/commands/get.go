package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fivetwenty-io/crest/internal/constants"
	"github.com/fivetwenty-io/crest/pkg/crest"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ErrQueryNoMatch is returned when --query selects nothing.
var ErrQueryNoMatch = errors.New("query matched nothing")

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var (
		follow  bool
		resolve bool
		query   string
	)

	cmd := &cobra.Command{
		Use:   "get [PATH]",
		Short: "Browse the CREST resource graph",
		Long: `Fetch the API root and walk a dotted PATH through it, e.g. "motd" or
"regions.items.0". Numeric segments index lists.

Without --follow only the root is fetched and linked resources along the path
are read as embedded. With --follow every linked resource on the path is
dereferenced, the final resource included. Otherwise --resolve dereferences
the final resource.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			path := ""
			if len(args) > 0 {
				path = args[0]
			}

			output := viper.GetString("output")
			if !validOutput(output) {
				return constants.ErrInvalidOutput
			}

			client, err := newClient(ctx, loadConfig())
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			root, err := client.Root(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch API root: %w", err)
			}

			var value crest.Value
			if follow {
				value, err = root.Follow(ctx, path)
			} else {
				value, err = root.Lookup(path)
			}

			if err != nil {
				return err
			}

			// Follow has already dereferenced the final node.
			if node, ok := value.AsNode(); ok && resolve && !follow {
				res, err := node.Resolve(ctx)
				if err != nil {
					return err
				}

				logger.Debug("Resolved resource", "path", path, "source", res.Source)
				value = res.Value
			}

			return renderValue(cmd.OutOrStdout(), value, output, query)
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "dereference every linked resource on the path")
	cmd.Flags().BoolVar(&resolve, "resolve", true, "dereference the final resource")
	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path applied to the JSON form of the result")

	return cmd
}

// renderValue writes value in the requested format. A query is applied to
// the JSON form first.
func renderValue(w io.Writer, value crest.Value, output, query string) error {
	if query != "" {
		return renderQuery(w, value, output, query)
	}

	switch output {
	case constants.FormatJSON:
		return writeJSON(w, value)
	case constants.FormatYAML:
		return yaml.NewEncoder(w).Encode(value.Raw())
	}

	switch value.Kind() {
	case crest.KindNode:
		node, _ := value.AsNode()

		table := tablewriter.NewWriter(w)
		table.Header("Field", "Value")

		for _, name := range node.Fields() {
			field, _ := node.Field(name)
			_ = table.Append(name, field.Summary())
		}

		return renderTable(table)
	case crest.KindList:
		items, _ := value.AsList()

		table := tablewriter.NewWriter(w)
		table.Header("#", "Value")

		for i, item := range items {
			_ = table.Append(strconv.Itoa(i), item.Summary())
		}

		return renderTable(table)
	default:
		_, err := fmt.Fprintln(w, value.Summary())

		return err
	}
}

func renderQuery(w io.Writer, value crest.Value, output, query string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	result := gjson.GetBytes(data, query)
	if !result.Exists() {
		return fmt.Errorf("%w: %s", ErrQueryNoMatch, query)
	}

	switch {
	case output == constants.FormatYAML:
		return yaml.NewEncoder(w).Encode(result.Value())
	case result.IsObject() || result.IsArray():
		var buf bytes.Buffer

		err = json.Indent(&buf, []byte(result.Raw), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}

		_, err = fmt.Fprintln(w, buf.String())

		return err
	case output == constants.FormatJSON:
		_, err = fmt.Fprintln(w, result.Raw)

		return err
	default:
		_, err = fmt.Fprintln(w, result.String())

		return err
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

func renderTable(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
