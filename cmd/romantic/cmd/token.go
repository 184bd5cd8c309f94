package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nossahistoria/romantic/auth"
	"github.com/nossahistoria/romantic/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Admin cookie tools",
	Long:  `Commands for inspecting the signed admin_session and admin_attempts cookies.`,
}

type inspectResult struct {
	Kind   string        `json:"kind,omitempty"`
	Valid  bool          `json:"valid"`
	Checks []checkResult `json:"checks"`
}

type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "pass", "fail", "info"
	Detail string `json:"detail,omitempty"`
}

func (r *inspectResult) add(name, status, detail string) {
	r.Checks = append(r.Checks, checkResult{Name: name, Status: status, Detail: detail})
	if status == "fail" {
		r.Valid = false
	}
}

// inspectToken verifies token with password and describes it at now. A
// session is valid until it expires; an attempts cookie is always reported
// valid once its signature checks out.
func inspectToken(password, token string, now time.Time) (inspectResult, error) {
	result := inspectResult{Valid: true}
	in, ok, err := auth.Inspect(password, strings.TrimSpace(token))
	if err != nil {
		return inspectResult{}, err
	}
	if !ok {
		result.add("signature", "fail", "not signed with this password")
		return result, nil
	}
	result.Kind = string(in.Kind)
	result.add("signature", "pass", "")

	switch in.Kind {
	case auth.KindSession:
		s := in.Session
		result.add("issued_at", "info", time.UnixMilli(s.IssuedAt).UTC().Format(time.RFC3339))
		exp := s.Expires().UTC()
		if exp.Before(now) {
			result.add("expiry", "fail", fmt.Sprintf("expired at %s", exp.Format(time.RFC3339)))
		} else {
			result.add("expiry", "pass", fmt.Sprintf("expires at %s (in %s)", exp.Format(time.RFC3339), exp.Sub(now).Round(time.Second)))
		}
	case auth.KindAttempts:
		st := in.Attempts
		result.add("failures", "info", fmt.Sprintf("%d", st.Count))
		switch {
		case st.LockedAt(now):
			result.add("lock", "info", fmt.Sprintf("locked until %s (%s)",
				st.LockedUntil.UTC().Format(time.RFC3339), auth.LockedMessage(st.LockedUntil.Sub(now))))
		case st.LockedUntil != nil:
			result.add("lock", "info", "lock expired; the next login starts a fresh count")
		default:
			result.add("lock", "info", "not locked")
		}
	}
	return result, nil
}

func printInspectResult(w io.Writer, result inspectResult) {
	if result.Kind != "" {
		fmt.Fprintf(w, "Token kind: %s\n\n", result.Kind)
	}
	for _, c := range result.Checks {
		tag := "[PASS]"
		switch c.Status {
		case "fail":
			tag = "[FAIL]"
		case "info":
			tag = "[INFO]"
		}
		if c.Detail != "" {
			fmt.Fprintf(w, "%s %s: %s\n", tag, c.Name, c.Detail)
		} else {
			fmt.Fprintf(w, "%s %s\n", tag, c.Name)
		}
	}
	fmt.Fprintln(w)
	if result.Valid {
		fmt.Fprintln(w, "Result: VALID")
	} else {
		fmt.Fprintln(w, "Result: INVALID")
	}
}

var inspectJSONOutput bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [token]",
	Short: "Verify and decode an admin cookie value",
	Long: `Verifies the signature of an admin_session or admin_attempts cookie value
with ADMIN_PASSWORD (read from the environment or .env) and prints its
content. Pass "-" or no argument to read the token from stdin.

Exits with status 1 when the token is forged, malformed or an expired session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectJSONOutput, "json", false, "Output results as JSON")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	if cfg.AdminPassword == "" {
		return config.ErrMissingAdminPassword
	}

	var token string
	if len(args) == 1 && args[0] != "-" {
		token = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		token = string(data)
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("no token given")
	}

	result, err := inspectToken(cfg.AdminPassword, token, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if inspectJSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printInspectResult(out, result)
	}

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}
