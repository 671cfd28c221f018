package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/backend"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	c := config.New()
	displayAppname(c.GetAppName())

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if c.GetEnv() != "DEV" {
		log = log.Level(zerolog.InfoLevel)
	}

	manager, err := buildManager(c, log)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		printUsage()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "signin":
		email, password, err := readCredentials(args[1:])
		if err != nil {
			return err
		}
		if err := manager.SignIn(ctx, email, password); err != nil {
			return err
		}
		fmt.Printf("Signed in as %s\n", email)
	case "signup":
		email, password, err := readCredentials(args[1:])
		if err != nil {
			return err
		}
		if err := manager.SignUp(ctx, email, password); err != nil {
			return err
		}
		if st := manager.State(); st.Kind == auth.StatePendingVerification {
			fmt.Printf("Account created, check %s for a verification email\n", st.Email)
		} else {
			fmt.Printf("Signed in as %s\n", email)
		}
	case "signout":
		if err := manager.SignOut(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out")
	case "token":
		accessToken, ok := manager.ValidAccessToken(ctx)
		if !ok {
			return auth.NoSessionErr
		}
		fmt.Println(accessToken)
	case "status":
		printStatus(manager)
	default:
		printUsage()
	}
	return nil
}

func buildManager(c config.Config, log zerolog.Logger) (*auth.Manager, error) {
	backendConfig := backend.Config{
		BaseURL: c.GetAuthBaseURL(),
		AnonKey: c.GetAuthAnonKey(),
	}

	storeOptions := []session.FileStoreOption{}
	if passphrase := c.GetSessionPassphrase(); passphrase != "" {
		storeOptions = append(storeOptions, session.WithPassphrase(passphrase))
	}
	store, err := session.NewFileStore(c.GetSessionDir(), storeOptions...)
	if err != nil {
		return nil, err
	}

	deps := auth.Deps{
		Config: backendConfig,
		Store:  store,
		Cache:  token.NewCache(),
	}
	if backendConfig.Configured() {
		client, err := backend.NewClient(backendConfig, backend.WithLogger(log))
		if err != nil {
			return nil, err
		}
		deps.Backend = client
	}
	return auth.NewManager(deps, auth.WithLogger(log))
}

func readCredentials(args []string) (email, password string, err error) {
	reader := bufio.NewReader(os.Stdin)
	if len(args) > 0 {
		email = args[0]
	} else {
		fmt.Print("Email: ")
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return "", "", readErr
		}
		email = strings.TrimSpace(line)
	}
	fmt.Print("Password: ")
	line, readErr := reader.ReadString('\n')
	if readErr != nil {
		return "", "", readErr
	}
	return email, strings.TrimRight(line, "\r\n"), nil
}

func printStatus(manager *auth.Manager) {
	st := manager.State()
	fmt.Printf("State: %s\n", st.Kind)
	switch st.Kind {
	case auth.StateSignedIn:
		if st.Session.UserEmail != "" {
			fmt.Printf("User: %s\n", st.Session.UserEmail)
		}
		if !st.Session.ExpiresAt.IsZero() {
			fmt.Printf("Token expires: %s\n", st.Session.ExpiresAt.Format(time.RFC3339))
		}
	case auth.StatePendingVerification:
		fmt.Printf("Awaiting email verification for %s\n", st.Email)
	case auth.StateError:
		fmt.Printf("Error: %s\n", st.Message)
	}
}

func printUsage() {
	fmt.Println("Usage: authcli <signin|signup|signout|token|status> [email]")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
