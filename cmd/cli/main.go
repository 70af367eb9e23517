// Command authctl is a CLI client for the authgate API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `authctl CLI
Usage:
  authctl -addr URL [-cacert file | -insecure] <cmd> [args]

Commands:
  version
  register    -email <email> -p <password> [-name <name>]   (saves session)
  log-in      -email <email> -p <password>                  (saves session)
  profile     [-id <user id>]                               (default: own profile)
  deactivate  -id <user id>                                 (admin only)
  status                                                    (local session info)
  log-out                                                   (forget local session)
`)
	os.Exit(2)
}

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the API at -addr.
func main() {
	// global flags
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	insecure := flag.Bool("insecure", false, "skip cert verify (dev)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "version":
		fmt.Printf("authctl %s (%s)\n", version, buildDate)

	case "register", "log-in":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		email := fs.String("email", "", "email")
		p := fs.String("p", "", "password")
		name := fs.String("name", "", "display name (register only)")
		_ = fs.Parse(args)
		if *email == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -email and -p")
			os.Exit(1)
		}

		cli := mustClient(*addr, *caPath, *insecure)
		var (
			s   *sessionFile
			err error
		)
		if cmd == "register" {
			s, err = cli.register(ctx, *name, *email, *p)
		} else {
			s, err = cli.login(ctx, *email, *p)
		}
		if err != nil {
			fail(err)
		}
		if err := saveSession(s); err != nil {
			fail(err)
		}
		fmt.Printf("ok: user %d, session until %s\n", s.UserID, s.ExpiresAt.Format(time.RFC3339))

	case "profile":
		fs := flag.NewFlagSet("profile", flag.ExitOnError)
		id := fs.Int64("id", 0, "user id (default: own)")
		_ = fs.Parse(args)

		s, err := loadSession()
		if err != nil {
			fail(err)
		}
		if *id == 0 {
			*id = s.UserID
		}
		cli := mustClient(*addr, *caPath, *insecure)
		env, p, err := cli.call(ctx, http.MethodGet, "/api/v1/user/profile/"+strconv.FormatInt(*id, 10), nil, s)
		if err := persist(s, err); err != nil {
			fail(err)
		}
		if env.SessionStatus != "" {
			fmt.Fprintln(os.Stderr, env.SessionStatus)
		}
		printJSON(p.User)

	case "deactivate":
		fs := flag.NewFlagSet("deactivate", flag.ExitOnError)
		id := fs.Int64("id", 0, "user id")
		_ = fs.Parse(args)
		if *id <= 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		s, err := loadSession()
		if err != nil {
			fail(err)
		}
		cli := mustClient(*addr, *caPath, *insecure)
		_, p, err := cli.call(ctx, http.MethodPatch, "/api/v1/admin/users/"+strconv.FormatInt(*id, 10)+"/deactivate", nil, s)
		if err := persist(s, err); err != nil {
			fail(err)
		}
		printJSON(p.User)

	case "status":
		s, err := loadSession()
		if err != nil {
			fail(err)
		}
		out := map[string]any{
			"user_id":            s.UserID,
			"email":              s.Email,
			"session_expires_at": s.ExpiresAt.Format(time.RFC3339),
		}
		if exp, ok := tokenExpiry(s.AccessToken); ok {
			out["access_expires_at"] = exp.Format(time.RFC3339)
		}
		printJSON(out)

	case "log-out":
		if err := removeSession(); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// register creates an account and returns its session.
func (c *client) register(ctx context.Context, name, email, password string) (*sessionFile, error) {
	s := &sessionFile{Email: email}
	body := map[string]string{"name": name, "email": email, "password": password}
	if _, _, err := c.call(ctx, http.MethodPost, "/api/v1/auth/register", body, s); err != nil {
		return nil, err
	}
	return signedIn(s)
}

// login authenticates and returns the new session.
func (c *client) login(ctx context.Context, email, password string) (*sessionFile, error) {
	s := &sessionFile{Email: email}
	body := map[string]string{"email": email, "password": password}
	if _, _, err := c.call(ctx, http.MethodPost, "/api/v1/auth/log-in", body, s); err != nil {
		return nil, err
	}
	return signedIn(s)
}

func signedIn(s *sessionFile) (*sessionFile, error) {
	if s.Cookie == "" || s.AccessToken == "" {
		return nil, errors.New("server did not issue a session")
	}
	exp, ok := tokenExpiry(s.RefreshToken)
	if !ok {
		return nil, errors.New("server issued an unreadable refresh token")
	}
	s.ExpiresAt = exp
	return s, nil
}

// persist saves renewed credentials after a successful call, and forgets the session once
// the server says it is over.
func persist(s *sessionFile, callErr error) error {
	var ae *apiError
	if errors.As(callErr, &ae) && ae.Status == http.StatusUnauthorized {
		_ = removeSession()
		return callErr
	}
	if callErr != nil {
		return callErr
	}
	return saveSession(s)
}

func mustClient(addr, caPath string, insecure bool) *client {
	c, err := newClient(addr, caPath, insecure)
	if err != nil {
		fail(err)
	}
	return c
}

func fail(err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "api error: status=%d tag=%s msg=%s\n", ae.Status, ae.Tag, ae.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
