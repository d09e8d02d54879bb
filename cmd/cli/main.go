// Command devctl is a terminal client for the DevConnector API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oksasatya/devconnector/internal/client"
)

const usage = `devctl - DevConnector terminal client

Usage:
  devctl [-addr URL] <command> [flags]

Commands:
  register  -n <name> -e <email> -p <password>   create an account (saves token)
  login     -e <email> -p <password>             sign in (saves token)
  me                                             show the signed-in identity
  profile                                        show your profile
  profile-set -status <s> -skills <csv> [...]    create or update your profile
  logout                                         drop the saved token
`

func main() {
	addr := flag.String("addr", envOr("DEVCONNECTOR_ADDR", "http://localhost:5000"), "server base URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	api := client.NewAPI(*addr, 10*time.Second)
	store := client.NewFileStorage(client.DefaultTokenPath())
	sess := client.NewSession(api, store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sess.Boot(ctx); err != nil {
		fatalf("boot: %v", err)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		name := fs.String("n", "", "name")
		email := fs.String("e", "", "email")
		pass := fs.String("p", "", "password")
		_ = fs.Parse(args)
		if err := sess.Register(ctx, *name, *email, *pass); err != nil {
			printAlerts(sess)
			os.Exit(1)
		}
		fmt.Printf("registered as %s\n", sess.State().Identity.Email)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("e", "", "email")
		pass := fs.String("p", "", "password")
		_ = fs.Parse(args)
		if err := sess.Login(ctx, *email, *pass); err != nil {
			printAlerts(sess)
			os.Exit(1)
		}
		fmt.Printf("signed in as %s\n", sess.State().Identity.Email)

	case "me":
		st := sess.State()
		if st.Status != client.StatusAuthenticated {
			fatalf("not signed in")
		}
		fmt.Printf("%s <%s>\navatar: %s\n", st.Identity.Name, st.Identity.Email, st.Identity.AvatarURL)

	case "profile":
		requireAuth(sess)
		p, err := api.MyProfile(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s @ %s\nskills: %s\nbio: %s\n", p.Status, p.Company, strings.Join(p.Skills, ", "), p.Bio)
		for _, e := range p.Experience {
			fmt.Printf("  exp: %s at %s (%s)\n", e.Title, e.Company, e.From)
		}
		for _, e := range p.Education {
			fmt.Printf("  edu: %s, %s (%s)\n", e.Degree, e.School, e.From)
		}

	case "profile-set":
		requireAuth(sess)
		fs := flag.NewFlagSet("profile-set", flag.ExitOnError)
		fields := map[string]*string{
			"status":         fs.String("status", "", "professional status"),
			"skills":         fs.String("skills", "", "comma-separated skills"),
			"company":        fs.String("company", "", "company"),
			"website":        fs.String("website", "", "website"),
			"location":       fs.String("location", "", "location"),
			"bio":            fs.String("bio", "", "bio"),
			"githubusername": fs.String("github", "", "github username"),
		}
		_ = fs.Parse(args)
		body := map[string]string{}
		for k, v := range fields {
			if *v != "" {
				body[k] = *v
			}
		}
		p, err := api.UpsertProfile(ctx, body)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("profile saved: %s, skills %s\n", p.Status, strings.Join(p.Skills, ", "))

	case "logout":
		if err := sess.Logout(); err != nil {
			fatalf("%v", err)
		}
		fmt.Println("signed out")

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func requireAuth(sess *client.Session) {
	if sess.State().Status != client.StatusAuthenticated {
		fatalf("not signed in (run: devctl login)")
	}
}

func printAlerts(sess *client.Session) {
	for _, a := range sess.State().Alerts {
		fmt.Fprintf(os.Stderr, "error: %s\n", a.Msg)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
