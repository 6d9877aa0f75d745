package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"stockledger/config"
	"stockledger/internal/pkg/database"
	"stockledger/migrations"
)

// rootCmd aplica as migrações embutidas no binário.
var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Gerencia o schema PostgreSQL do stockledger",
	Long: `Aplica as migrações goose embutidas no binário.

Comandos:
  up      - aplica todas as migrações pendentes
  down    - desfaz a última migração
  status  - lista as migrações e se foram aplicadas
  version - mostra a versão atual do schema`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up [versão]",
	Short: "Aplica as migrações pendentes (até a versão, se informada)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
			if len(args) == 1 {
				version, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("versão inválida %q: %w", args[0], err)
				}
				return goose.UpToContext(ctx, db, ".", version)
			}
			return goose.UpContext(ctx, db, ".")
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Desfaz a última migração aplicada",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
			return goose.DownContext(ctx, db, ".")
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Lista as migrações e o estado de cada uma",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
			return goose.StatusContext(ctx, db, ".")
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Mostra a versão atual do schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
			return goose.VersionContext(ctx, db, ".")
		})
	},
}

// withDB abre a conexão, prepara o goose com as migrações embutidas e executa fn.
func withDB(ctx context.Context, fn func(ctx context.Context, db *sql.DB) error) error {
	db, err := database.NewPostgresDB(ctx, config.LoadDatabaseURL(), database.DefaultPool)
	if err != nil {
		return fmt.Errorf("goose: falha ao conectar ao DB: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn(ctx, db)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Aviso: arquivo .env não encontrado. Usando apenas o ambiente do sistema: %v", err)
	}

	rootCmd.AddCommand(upCmd, downCmd, statusCmd, versionCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
