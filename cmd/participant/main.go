// Package main is a terminal quiz taker. It joins a session by code, waits
// for it to unlock, runs the countdown locally and submits answers.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quizdeck/backend/internal/models"
	"github.com/quizdeck/backend/internal/participant"
	"github.com/quizdeck/backend/pkg/quizclient"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "quiz server base URL")
	code := flag.String("code", "", "4-character join code")
	name := flag.String("name", "", "participant name")
	email := flag.String("email", "", "participant email (optional)")
	phone := flag.String("phone", "", "participant phone (optional)")
	flag.Parse()

	if *code == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "usage: participant -code ABCD -name \"Your Name\" [-server URL] [-email ...] [-phone ...]")
		os.Exit(2)
	}

	logger := zap.NewNop()
	client := quizclient.New(*server)

	updates := make(chan *models.SessionWithTemplate, 1)
	done := make(chan *models.Response, 1)

	runner := participant.NewRunner(client, participant.Config{
		Code:             strings.ToUpper(*code),
		ParticipantName:  *name,
		ParticipantEmail: *email,
		ParticipantPhone: *phone,
		OnUpdate: func(view *models.SessionWithTemplate) {
			select {
			case updates <- view:
			default:
			}
		},
		OnTick: func(remaining time.Duration) {
			secs := int(remaining / time.Second)
			if secs <= 10 || secs%60 == 0 {
				fmt.Printf("\r%s remaining        ", remaining.Round(time.Second))
			}
		},
		OnNotice: func(msg string) {
			fmt.Println("\n" + msg)
		},
		OnSubmitted: func(resp *models.Response) {
			select {
			case done <- resp:
			default:
			}
		},
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(ctx) }()

	// Wait for the initial fetch.
	var view *models.SessionWithTemplate
	select {
	case view = <-updates:
	case err := <-runErr:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Printf("Quiz: %s (code %s)\n", view.Template.Name, view.Code)
	if view.Template.Description != "" {
		fmt.Println(view.Template.Description)
	}

	// Wait for unlock; the runner's poll picks up status changes.
	for view.Status != models.StatusUnlocked {
		if view.Status == models.StatusCompleted {
			fmt.Println("This session has ended and is no longer accepting responses.")
			os.Exit(1)
		}
		if view.UnlockTime != nil {
			fmt.Printf("Quiz is locked; scheduled to unlock at %s. Waiting...\n", view.UnlockTime.Local().Format(time.RFC1123))
		} else {
			fmt.Println("Quiz is locked. Waiting for the organizer to unlock it...")
		}
		select {
		case view = <-updates:
		case err := <-runErr:
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}

	reader := bufio.NewReader(os.Stdin)
	if view.TimeLimitMinutes != nil {
		fmt.Printf("Time limit: %d minute(s). The countdown starts when you press enter.\n", *view.TimeLimitMinutes)
	}
	fmt.Print("Press enter to start: ")
	_, _ = reader.ReadString('\n')
	if err := runner.Begin(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	for i, q := range view.Template.Questions {
		answer := askQuestion(reader, i+1, q)
		if answer != "" {
			runner.SetAnswer(q.ID, answer)
		}
		if resp := drainDone(done); resp != nil {
			report(resp)
			return
		}
	}

	for {
		if missing := runner.MissingRequired(); len(missing) > 0 {
			fmt.Printf("%d required question(s) still unanswered.\n", len(missing))
			for _, q := range view.Template.Questions {
				for _, id := range missing {
					if q.ID == id {
						answer := askQuestion(reader, q.Position+1, q)
						if answer != "" {
							runner.SetAnswer(q.ID, answer)
						}
					}
				}
			}
			continue
		}
		resp, err := runner.Submit(ctx)
		if err != nil {
			if errors.Is(err, models.ErrNotAcceptingResponses) {
				fmt.Println("The session is no longer accepting responses.")
				os.Exit(1)
			}
			if resp := drainDone(done); resp != nil {
				report(resp)
				return
			}
			fmt.Fprintln(os.Stderr, "submit failed:", err)
			os.Exit(1)
		}
		report(resp)
		return
	}
}

func askQuestion(reader *bufio.Reader, number int, q models.Question) string {
	fmt.Printf("\n%d. %s", number, q.Text)
	if q.Required {
		fmt.Print(" (required)")
	}
	fmt.Println()
	if q.Type.IsChoice() {
		for i, opt := range q.Options {
			fmt.Printf("   %d) %s\n", i+1, opt)
		}
		fmt.Print("Choose an option: ")
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(q.Options) {
			return q.Options[n-1]
		}
		return line
	}
	fmt.Print("Answer: ")
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func drainDone(done chan *models.Response) *models.Response {
	select {
	case resp := <-done:
		return resp
	default:
		return nil
	}
}

func report(resp *models.Response) {
	fmt.Printf("\nSubmitted. Response %s recorded at %s.\n", resp.ID, resp.SubmittedAt.Local().Format(time.RFC1123))
}
