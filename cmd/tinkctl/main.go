// Command tinkctl manages keysets on disk and runs the primitives they
// back: generate and rotate keys, compute and verify MACs, encrypt and
// decrypt with AEAD or hybrid encryption.
//
// Keysets are stored as cleartext JSON. Protect the files accordingly.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	jsoncodec "github.com/rbaliyan/config/codec/json"
	"github.com/spf13/cobra"

	"github.com/kingjay66/tink"
	"github.com/kingjay66/tink/aead"
	"github.com/kingjay66/tink/hybrid"
	"github.com/kingjay66/tink/key"
	"github.com/kingjay66/tink/keyset"
	"github.com/kingjay66/tink/mac"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:           "tinkctl",
		Short:         "Manage keysets and run their primitives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			if err := mac.Register(); err != nil {
				return err
			}
			if err := aead.Register(); err != nil {
				return err
			}
			return hybrid.Register()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(rotateCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(publicCmd())
	rootCmd.AddCommand(computeMACCmd())
	rootCmd.AddCommand(verifyMACCmd())
	rootCmd.AddCommand(encryptCmd())
	rootCmd.AddCommand(decryptCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// templateParameters maps a template name to key parameters.
func templateParameters(template string) (key.Parameters, error) {
	switch strings.ToLower(template) {
	case "hmac-sha256":
		return mac.NewHMACParameters(32, 32, mac.SHA256, mac.VariantTink)
	case "hmac-sha512":
		return mac.NewHMACParameters(64, 64, mac.SHA512, mac.VariantTink)
	case "xchacha20-poly1305":
		return aead.NewXChaCha20Poly1305Parameters(aead.VariantTink)
	case "ecies-x25519":
		return hybrid.NewECIESParameters(hybrid.VariantTink)
	default:
		return nil, fmt.Errorf("unknown template %q (want hmac-sha256, hmac-sha512, xchacha20-poly1305 or ecies-x25519)", template)
	}
}

func readHandle(path string) (*keyset.Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return keyset.Read(f, jsoncodec.New())
}

func writeHandle(h *keyset.Handle, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := keyset.Write(h, f, jsoncodec.New()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(data []byte, path string) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func createCmd() *cobra.Command {
	var template, out string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new keyset with a single primary key",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := templateParameters(template)
			if err != nil {
				return err
			}
			m := keyset.NewManager()
			id, err := m.Add(params)
			if err != nil {
				return err
			}
			if err := m.SetPrimary(id); err != nil {
				return err
			}
			h, err := m.Handle()
			if err != nil {
				return err
			}
			if out == "" {
				out = uuid.NewString() + ".keyset.json"
			}
			if err := writeHandle(h, out); err != nil {
				return err
			}
			slog.Debug("created keyset", "template", template, "primary_key_id", id, "path", out)
			fmt.Printf("Created keyset %s (primary key ID %d)\n", out, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&template, "template", "", "Key template (required)")
	cmd.Flags().StringVar(&out, "out", "", "Keyset file to write (default: <uuid>.keyset.json)")
	cmd.MarkFlagRequired("template")
	return cmd
}

func rotateCmd() *cobra.Command {
	var template, path string
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Add a fresh key to a keyset and make it primary",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := templateParameters(template)
			if err != nil {
				return err
			}
			h, err := readHandle(path)
			if err != nil {
				return err
			}
			m := keyset.NewManagerFromHandle(h)
			id, err := m.Add(params)
			if err != nil {
				return err
			}
			if err := m.SetPrimary(id); err != nil {
				return err
			}
			rotated, err := m.Handle()
			if err != nil {
				return err
			}
			if err := writeHandle(rotated, path); err != nil {
				return err
			}
			slog.Debug("rotated keyset", "template", template, "primary_key_id", id, "path", path)
			fmt.Printf("Rotated keyset %s (new primary key ID %d)\n", path, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&template, "template", "", "Key template for the new key (required)")
	cmd.Flags().StringVar(&path, "keyset", "", "Keyset file (required)")
	cmd.MarkFlagRequired("template")
	cmd.MarkFlagRequired("keyset")
	return cmd
}

func listCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the keys in a keyset",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := readHandle(path)
			if err != nil {
				return err
			}
			ks := h.Keyset()
			fmt.Printf("%-12s %-10s %-9s %s\n", "KEY_ID", "STATUS", "PREFIX", "TYPE_URL")
			for _, e := range ks.Entries {
				marker := ""
				if e.KeyID == ks.PrimaryKeyID {
					marker = " (primary)"
				}
				fmt.Printf("%-12d %-10s %-9s %s%s\n", e.KeyID, e.Status, e.OutputPrefixType, e.KeyData.TypeURL, marker)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "keyset", "", "Keyset file (required)")
	cmd.MarkFlagRequired("keyset")
	return cmd
}

func publicCmd() *cobra.Command {
	var path, out string
	cmd := &cobra.Command{
		Use:   "public",
		Short: "Derive the public keyset of a private keyset",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := readHandle(path)
			if err != nil {
				return err
			}
			pub, err := h.Public()
			if err != nil {
				return err
			}
			if out == "" {
				out = uuid.NewString() + ".pub.keyset.json"
			}
			if err := writeHandle(pub, out); err != nil {
				return err
			}
			fmt.Printf("Wrote public keyset %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "keyset", "", "Private keyset file (required)")
	cmd.Flags().StringVar(&out, "out", "", "Public keyset file to write (default: <uuid>.pub.keyset.json)")
	cmd.MarkFlagRequired("keyset")
	return cmd
}

func computeMACCmd() *cobra.Command {
	var path, in, out string
	cmd := &cobra.Command{
		Use:   "compute-mac",
		Short: "Compute a MAC over the input with the keyset's primary key",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := readHandle(path)
			if err != nil {
				return err
			}
			primitive, err := mac.New(h)
			if err != nil {
				return err
			}
			data, err := readInput(in)
			if err != nil {
				return err
			}
			tag, err := primitive.ComputeMAC(data)
			if err != nil {
				return err
			}
			return writeOutput(tag, out)
		},
	}
	cmd.Flags().StringVar(&path, "keyset", "", "Keyset file (required)")
	cmd.Flags().StringVar(&in, "in", "", "Input file (default: stdin)")
	cmd.Flags().StringVar(&out, "out", "", "Output file for the MAC (default: stdout)")
	cmd.MarkFlagRequired("keyset")
	return cmd
}

func verifyMACCmd() *cobra.Command {
	var path, in, macFile string
	cmd := &cobra.Command{
		Use:   "verify-mac",
		Short: "Verify a MAC over the input against the keyset's enabled keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := readHandle(path)
			if err != nil {
				return err
			}
			primitive, err := mac.New(h)
			if err != nil {
				return err
			}
			data, err := readInput(in)
			if err != nil {
				return err
			}
			tag, err := os.ReadFile(macFile)
			if err != nil {
				return err
			}
			if err := primitive.VerifyMAC(tag, data); err != nil {
				if errors.Is(err, tink.ErrMACVerification) {
					return fmt.Errorf("MAC verification failed")
				}
				return err
			}
			fmt.Println("MAC verified")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "keyset", "", "Keyset file (required)")
	cmd.Flags().StringVar(&in, "in", "", "Input file (default: stdin)")
	cmd.Flags().StringVar(&macFile, "mac", "", "File holding the MAC to verify (required)")
	cmd.MarkFlagRequired("keyset")
	cmd.MarkFlagRequired("mac")
	return cmd
}

func encryptCmd() *cobra.Command {
	var path, in, out, associatedData string
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt the input with the keyset's primary key",
		Long: "Encrypt the input with the keyset's primary key. AEAD keysets use\n" +
			"--associated-data as associated data; hybrid public keysets use it as\n" +
			"context info.",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := readHandle(path)
			if err != nil {
				return err
			}
			data, err := readInput(in)
			if err != nil {
				return err
			}
			ct, err := sealWithHandle(h, data, []byte(associatedData))
			if err != nil {
				return err
			}
			return writeOutput(ct, out)
		},
	}
	cmd.Flags().StringVar(&path, "keyset", "", "Keyset file (required)")
	cmd.Flags().StringVar(&in, "in", "", "Input file (default: stdin)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&associatedData, "associated-data", "", "Associated data or context info")
	cmd.MarkFlagRequired("keyset")
	return cmd
}

func decryptCmd() *cobra.Command {
	var path, in, out, associatedData string
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt the input against the keyset's enabled keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := readHandle(path)
			if err != nil {
				return err
			}
			data, err := readInput(in)
			if err != nil {
				return err
			}
			pt, err := openWithHandle(h, data, []byte(associatedData))
			if err != nil {
				return err
			}
			return writeOutput(pt, out)
		},
	}
	cmd.Flags().StringVar(&path, "keyset", "", "Keyset file (required)")
	cmd.Flags().StringVar(&in, "in", "", "Input file (default: stdin)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&associatedData, "associated-data", "", "Associated data or context info")
	cmd.MarkFlagRequired("keyset")
	return cmd
}

// sealWithHandle picks the encryption primitive by what the keyset
// resolves to: AEAD first, hybrid public keysets second.
func sealWithHandle(h *keyset.Handle, plaintext, associatedData []byte) ([]byte, error) {
	if a, err := aead.New(h); err == nil {
		return a.Encrypt(plaintext, associatedData)
	}
	e, err := hybrid.NewHybridEncrypt(h)
	if err != nil {
		return nil, fmt.Errorf("keyset supports neither AEAD nor hybrid encryption: %w", err)
	}
	return e.Encrypt(plaintext, associatedData)
}

func openWithHandle(h *keyset.Handle, ciphertext, associatedData []byte) ([]byte, error) {
	if a, err := aead.New(h); err == nil {
		return a.Decrypt(ciphertext, associatedData)
	}
	d, err := hybrid.NewHybridDecrypt(h)
	if err != nil {
		return nil, fmt.Errorf("keyset supports neither AEAD nor hybrid decryption: %w", err)
	}
	return d.Decrypt(ciphertext, associatedData)
}
