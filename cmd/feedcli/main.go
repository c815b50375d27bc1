// Command feedcli is a terminal client for the network API. It drives the
// same feed session and interaction controller a browser client would.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"network/internal/client"
	"network/internal/feed"
	"network/internal/interaction"
	"network/internal/middleware"
	"network/internal/models"
	"network/internal/notifications"
)

type terminalSurface struct {
	out io.Writer
}

func (s terminalSurface) SetEnabled(string, bool) {}

func (s terminalSurface) ShowError(key, message string) {
	fmt.Fprintf(s.out, "! %s: %s\n", key, message)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8375", "API base URL")
	login := flag.String("login", "", "username or email to log in with")
	register := flag.String("register", "", "username to register (uses -email)")
	email := flag.String("email", "", "email for -register")
	password := flag.String("password", os.Getenv("NETWORK_PASSWORD"), "account password")
	live := flag.Bool("live", true, "subscribe to live feed events")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, *baseURL, *login, *register, *email, *password, *live); err != nil {
		middleware.Logger.Error("feedcli failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer, baseURL, login, register, email, password string, live bool) error {
	api, err := client.New(baseURL, client.WithLogger(middleware.Logger))
	if err != nil {
		return err
	}
	if err := api.FetchCSRF(ctx); err != nil {
		return err
	}

	switch {
	case register != "":
		res, err := api.Register(ctx, register, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "registered as %s\n", res.User.Username)
	case login != "":
		res, err := api.Login(ctx, login, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "logged in as %s\n", res.User.Username)
	}

	lines := bufio.NewScanner(in)
	view := feed.NewMemoryView()
	session := feed.NewSession(api, view, feed.WithLogger(middleware.Logger))
	ctrl := interaction.NewController(api, session, terminalSurface{out: out},
		interaction.WithLogger(middleware.Logger),
		interaction.WithConfirm(func(prompt string) bool {
			fmt.Fprintf(out, "%s [y/N] ", prompt)
			if !lines.Scan() {
				return false
			}
			return strings.EqualFold(strings.TrimSpace(lines.Text()), "y")
		}),
	)

	if live {
		go func() {
			err := api.Subscribe(ctx, func(ev notifications.Event) {
				if err := session.ApplyEvent(ev); err != nil {
					middleware.Logger.Warn("live event dropped", slog.String("type", ev.Type), slog.String("error", err.Error()))
				}
			})
			if err != nil {
				middleware.Logger.Warn("live events unavailable", slog.String("error", err.Error()))
			}
		}()
	}

	if err := session.LoadPosts(ctx, models.FilterAll, 0); err != nil && !errors.Is(err, feed.ErrStale) {
		fmt.Fprintf(out, "! %v\n", err)
	}
	render(out, view)

	fmt.Fprint(out, "> ")
	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if line != "" {
			if err := handle(ctx, out, line, session, ctrl); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
			render(out, view)
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
	}
	return lines.Err()
}

func handle(ctx context.Context, out io.Writer, line string, session *feed.Session, ctrl *interaction.Controller) error {
	verb, rest, _ := strings.Cut(line, " ")
	switch verb {
	case "help":
		fmt.Fprintln(out, "load all | load following | load profile N | more | comments N | profile N | quit")
		for _, u := range interaction.Usage {
			fmt.Fprintln(out, u)
		}
		return nil
	case "load":
		filter, arg, _ := strings.Cut(strings.TrimSpace(rest), " ")
		f, ok := models.ParseFeedFilter(filter)
		if !ok {
			return fmt.Errorf("unknown feed %q", filter)
		}
		var profileID uint
		if f == models.FilterProfile {
			id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
			if err != nil {
				return fmt.Errorf("profile feed needs a user id")
			}
			profileID = uint(id)
		}
		return ignoreStale(session.Navigate(ctx, f, profileID))
	case "more":
		return ignoreStale(session.LoadMorePosts(ctx))
	case "comments":
		id, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			return fmt.Errorf("comments needs a post id")
		}
		comments, err := ctrl.LoadComments(ctx, uint(id))
		if err != nil {
			return err
		}
		for _, c := range comments {
			fmt.Fprintf(out, "  [%d] %s: %s\n", c.ID, c.User, c.Content)
		}
		return nil
	case "profile":
		id, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			return fmt.Errorf("profile needs a user id")
		}
		p, err := ctrl.LoadProfile(ctx, uint(id))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d followers, %d following, following=%t\n",
			p.Username, p.Followers, p.Following, p.Follow)
		return ignoreStale(session.Navigate(ctx, models.FilterProfile, uint(id)))
	}

	cmd, err := interaction.ParseCommand(line)
	if err != nil {
		return err
	}
	err = ctrl.Dispatch(ctx, cmd)
	if errors.Is(err, interaction.ErrCancelled) {
		return nil
	}
	return err
}

func ignoreStale(err error) error {
	if errors.Is(err, feed.ErrStale) {
		return nil
	}
	return err
}

func render(out io.Writer, view *feed.MemoryView) {
	if msg := view.Message(); msg != "" {
		fmt.Fprintln(out, msg)
		return
	}
	for _, p := range view.Posts() {
		liked := " "
		if p.Liked {
			liked = "♥"
		}
		fmt.Fprintf(out, "#%d %s %s (%s)\n    %s\n    %d likes, %d comments\n",
			p.ID, liked, p.User, p.Timestamp.Format("Jan 2 2006, 3:04 PM"), p.Content, p.LikeCount, p.CommentCount)
	}
	if view.SentinelArmed() {
		fmt.Fprintln(out, "-- more --")
	}
}
