package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"inspire-orcid/internal/app"
	"inspire-orcid/internal/config"
	orciddomain "inspire-orcid/internal/domain/orcid"
)

type LoadRecordOptions struct {
	*RootOptions
	Recid string
}

func NewLoadRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadRecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load-record <file.json|->",
		Short: "Store a literature record so it can be pushed",
		Long: `Store a literature record so it can be pushed.

The recid is taken from --recid, or from the record's control_number.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadRecord(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Recid, "recid", "", "record id (default: control_number)")

	return cmd
}

func runLoadRecord(cmd *cobra.Command, opts *LoadRecordOptions, path string) error {
	record, err := readRecord(cmd.InOrStdin(), path, opts.Recid)
	if err != nil {
		return err
	}

	cfg, err := opts.config()
	if err != nil {
		return err
	}
	if cfg.Storage == config.StorageMemory {
		opts.Log.Warn("load-record: memory storage does not outlive this command", "recid", record.Recid)
	}
	application, err := app.New(cfg, opts.Log, app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Records().SaveRecord(cmd.Context(), record); err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), opts.Format, map[string]string{"recid": record.Recid}, "loaded recid="+record.Recid)
}

func readRecord(stdin io.Reader, path, recid string) (*orciddomain.Record, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", path, err)
	}

	recid = strings.TrimSpace(recid)
	if recid == "" {
		recid = controlNumber(data)
	}
	if recid == "" {
		return nil, fmt.Errorf("record %s has no control_number; pass --recid", path)
	}
	return &orciddomain.Record{Recid: recid, Data: data}, nil
}

func controlNumber(data map[string]interface{}) string {
	switch value := data["control_number"].(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return fmt.Sprintf("%.0f", value)
	}
	return ""
}
