package main

import (
	"errors"
	"fmt"

	"github.com/SergeiKhy/linkpulse/internal/repository"
	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	adminEmail    string
	adminName     string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Создать пользователя с ролью ADMIN",
	Long: `Создаёт администратора с паролем. Пример:
  linkpulse-cli create-admin --email=admin@example.com --name=Admin --password=secret123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := repository.NewPostgresDB(cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		auth := service.NewAuthService(repository.NewUserRepository(db), cfg.Auth, logger)
		user, err := auth.CreateAdmin(cmd.Context(), adminEmail, adminName, adminPassword)
		if err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				return fmt.Errorf("пользователь %s уже существует", adminEmail)
			}
			return err
		}

		logger.Info("Администратор создан", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "email администратора")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin", "имя администратора")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "пароль (не короче 8 символов)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
