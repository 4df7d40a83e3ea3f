package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tuff-sh/tuffhub/internal/registry/conf"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	"github.com/tuff-sh/tuffhub/internal/registry/repo"
	"github.com/tuff-sh/tuffhub/internal/registry/service"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	"github.com/tuff-sh/tuffhub/pkg/id"
	"github.com/tuff-sh/tuffhub/pkg/log"
	"github.com/tuff-sh/tuffhub/pkg/orm"
	"github.com/tuff-sh/tuffhub/pkg/version"
)

var confFile string

var rootCmd = &cobra.Command{
	Use:   "tuffctl",
	Short: "tuffhub operations tool",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.EnsureSchema(); err != nil {
			return err
		}
		fmt.Println("schema is up to date")
		return nil
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "user-create <username> <password>",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.EnsureSchema(); err != nil {
			return err
		}

		hash, err := service.HashPassword(args[1])
		if err != nil {
			return err
		}
		admin, _ := cmd.Flags().GetBool("admin")
		user := &model.User{
			BaseModel: model.BaseModel{Id: id.GetUUID()},
			Username:  args[0],
			Nickname:  args[0],
			Password:  hash,
			IsAdmin:   admin,
		}
		if err := store.CreateUser(user); err != nil {
			return err
		}
		fmt.Printf("user created: %s (%s)\n", user.Username, user.Id)
		return nil
	},
}

func openStore() (*repo.Repo, error) {
	cfg := conf.NewConf(confFile)
	log.MustInit(&cfg.Log)

	db, err := orm.NewDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	return repo.NewRepo(ctx.NewContext(context.Background(), db, nil, log.GetLogger())), nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&confFile, "conf", "c", "conf.d/config.toml", "configuration file path")
	userCreateCmd.Flags().Bool("admin", false, "grant admin privileges")

	rootCmd.AddCommand(migrateCmd, userCreateCmd, version.VersionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
