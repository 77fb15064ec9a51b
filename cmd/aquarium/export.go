package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium"
	"github.com/aretw0/aquarium/internal/prefs"
	"github.com/aretw0/aquarium/pkg/adapters/fs"
	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/session"
)

var (
	exportOut    string
	exportFormat string
	importYes    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the room document as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		room, err := session.Resolve(ctx, prefs.NewFile(prefsPath), stdinPrompt(cmd))
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		model, err := aquarium.LoadRoom(ctx, store, room)
		if err != nil {
			return err
		}
		data, err := model.Data.Encode()
		if err != nil {
			return err
		}

		name := exportFormat
		if name == "" && exportOut != "" {
			name = filepath.Ext(exportOut)
		}
		serializer, err := serializerFor(name)
		if err != nil {
			return err
		}
		out, err := serializer.Encode(data)
		if err != nil {
			return err
		}

		if exportOut == "" || exportOut == "-" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		// The export holds the whole room; keep it private like the prefs.
		return os.WriteFile(exportOut, out, 0o600)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the room document with an exported one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		room, err := session.Resolve(ctx, prefs.NewFile(prefsPath), stdinPrompt(cmd))
		if err != nil {
			return err
		}

		var raw []byte
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}
		serializer, err := serializerFor(filepath.Ext(args[0]))
		if err != nil {
			return err
		}
		data, err := serializer.Decode(raw)
		if err != nil {
			return err
		}
		doc, err := core.DecodeDocument(data)
		if err != nil {
			return err
		}

		if !confirmer(cmd, importYes).Confirm(ctx, "Replace the whole room document?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		encoded, err := doc.Encode()
		if err != nil {
			return err
		}
		if err := store.Write(ctx, core.RoomKey(room), encoded, core.WriteOptions{}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d days and %d images\n", len(doc.Calendar), len(doc.Vision))
		return nil
	},
}

// serializerFor picks the room file codec by format name or extension.
// An empty name means JSON.
func serializerFor(name string) (fs.Serializer, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "yaml", "yml":
		return fs.YAMLSerializer{}, nil
	case "json", "", "-":
		return fs.JSONSerializer{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", name)
	}
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "as", "", "Output format: json or yaml (default from --out extension)")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
