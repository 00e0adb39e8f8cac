package cmd

import (
	"fmt"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type createUserOptions struct {
	Username string
	Password string
	Email    string
	Tipo     string
	Staff    bool
}

// NewCreateUserCommand creates the createuser command.
func NewCreateUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &createUserOptions{}

	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rootOpts.openDB()
			if err != nil {
				return err
			}
			user, err := createUser(db, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Usuario %s creado (id %d, tipo %s)\n", user.Username, user.ID, user.Tipo)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "username (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Tipo, "tipo", models.TipoInspector, "user kind: inspector|ciudadano|admin")
	cmd.Flags().BoolVar(&opts.Staff, "staff", false, "grant staff flag")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func createUser(db *gorm.DB, opts *createUserOptions) (*models.User, error) {
	if !models.IsValidTipo(opts.Tipo) {
		return nil, errors.Errorf("invalid tipo %q", opts.Tipo)
	}
	if opts.Password == "" {
		return nil, errors.New("password must not be empty")
	}

	user := models.NewUser(opts.Username, opts.Tipo)
	user.Email = opts.Email
	user.IsStaff = opts.Staff
	if err := user.SetPassword(opts.Password); err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Errorf("user %q already exists", opts.Username)
		}
		return nil, errors.Wrap(err, "create user")
	}
	return user, nil
}
