package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/mongo"

	"plp_smartgrade/backend/internal/activity"
	"plp_smartgrade/backend/internal/admin"
	"plp_smartgrade/backend/internal/grade"
	"plp_smartgrade/backend/internal/shared"
)

const (
	cliActor = "cli"

	debugFlagName = "debug"
	envFlagName   = "env"
	fileFlagName  = "file"
)

var version = "v0.0.1-default"

func newFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  fileFlagName,
		Usage: "YAML fixture (defaults to the built-in demo records)",
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "smartgrade",
		Version: version,
		Usage:   "Administration CLI for PLP SmartGrade",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: debugFlagName, Usage: "Prints verbose logs"},
			&cli.StringFlag{Name: envFlagName, Usage: "Path to the .env file", Value: ".env"},
		},
		Commands: []*cli.Command{
			seedCmd(),
			addAdminCmd(),
			evaluateCmd(),
		},
	}
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Creates the fixture records in MongoDB",
		Flags: []cli.Flag{
			newFileFlag(),
			&cli.BoolFlag{Name: "drop", Usage: "Drops the database before seeding"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fixture, err := LoadFixture(cmd.String(fileFlagName))
			if err != nil {
				return err
			}

			return withDatabase(ctx, cmd, func(db *mongo.Database) error {
				if cmd.Bool("drop") {
					slog.Warn("dropping database", "database", db.Name())
					if err := db.Drop(ctx); err != nil {
						return fmt.Errorf("dropping database: %w", err)
					}
				}
				if err := shared.EnsureIndexes(ctx, db); err != nil {
					return err
				}

				svc := admin.NewService(admin.NewMongoStore(db), activity.NewMongoRecorder(db))
				res, err := Seed(ctx, svc, fixture, cliActor)
				if err != nil {
					return err
				}
				slog.Info("seeding complete", "students", res.Students, "subjects", res.Subjects, "scores", res.Scores)
				return printJSON(cmd.Root().Writer, res)
			})
		},
	}
}

func addAdminCmd() *cli.Command {
	return &cli.Command{
		Name:  "add-admin",
		Usage: "Creates an administrator account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Login email", Required: true},
			&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withDatabase(ctx, cmd, func(db *mongo.Database) error {
				svc := admin.NewService(admin.NewMongoStore(db), activity.NewMongoRecorder(db))
				u, err := svc.CreateAdmin(ctx, cliActor, admin.UserInput{
					Email: cmd.String("email"),
					Name:  cmd.String("name"),
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.Root().Writer, u)
			})
		},
	}
}

func evaluateCmd() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "Prints a student's snapshot and advisories as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "student", Usage: "Student ID (fixture key with --file)", Required: true},
			&cli.StringFlag{Name: "subject", Usage: "Subject ID; all enrolled subjects when empty"},
			&cli.StringFlag{Name: "semester", Usage: "Limits the summary to one semester"},
			&cli.BoolFlag{Name: "offline", Usage: "Evaluates the fixture from --file instead of MongoDB"},
			newFileFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			run := func(store grade.Store) error {
				report, err := Evaluate(ctx, store, cmd.String("student"), cmd.String("subject"), cmd.String("semester"))
				if err != nil {
					return err
				}
				return printJSON(cmd.Root().Writer, report)
			}

			if cmd.Bool("offline") || cmd.IsSet(fileFlagName) {
				setupLogging(cmd, "development")
				fixture, err := LoadFixture(cmd.String(fileFlagName))
				if err != nil {
					return err
				}
				return run(fixture.MemoryStore())
			}

			return withDatabase(ctx, cmd, func(db *mongo.Database) error {
				return run(grade.NewMongoStore(db))
			})
		},
	}
}

// withDatabase loads configuration, connects to MongoDB and runs fn
func withDatabase(ctx context.Context, cmd *cli.Command, fn func(db *mongo.Database) error) error {
	if err := shared.LoadEnv(cmd.Root().String(envFlagName)); err != nil {
		slog.Debug("no .env file found, using system environment variables")
	}

	cfg, err := shared.LoadServiceConfig("smartgrade")
	if err != nil {
		return err
	}
	setupLogging(cmd, cfg.Environment)

	client, db, err := shared.ConnectMongoDB(ctx, &cfg.MongoDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			slog.Error("error disconnecting from MongoDB", "error", err)
		}
	}()

	return fn(db)
}

func setupLogging(cmd *cli.Command, environment string) {
	level := "info"
	if cmd.Root().Bool(debugFlagName) {
		level = "debug"
	}
	slog.SetDefault(shared.NewLogger(os.Stderr, &shared.ServiceConfig{
		ServiceName: "smartgrade",
		Environment: environment,
		LogLevel:    level,
	}))
}

func printJSON(w io.Writer, v interface{}) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
