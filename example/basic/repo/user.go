package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/mickamy/elucify/example/basic/model"
	"github.com/mickamy/elucify/example/basic/query"
	"github.com/mickamy/elucify/orm"
	"github.com/mickamy/elucify/pool"
	"github.com/mickamy/elucify/scope"
)

// ErrEmailTaken is returned by Register when the email is already in use.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository wraps generated query functions with a repository pattern.
type UserRepository struct {
	db *orm.DB
}

func NewUserRepository(db *orm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Register creates u, its credentials and its member role in one transaction.
// The UNIQUE constraint on users.email decides races between registrations.
func (r *UserRepository) Register(ctx context.Context, u *model.User, passwordHash string) error {
	return r.db.Transaction(ctx, func(tx *orm.Tx) error {
		if err := query.Users(tx).Create(ctx, u); err != nil {
			if pool.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		creds := &model.Credentials{UserID: u.ID, Password: passwordHash}
		if err := query.Credentials(tx).Create(ctx, creds); err != nil {
			return fmt.Errorf("create credentials: %w", err)
		}
		return grantRole(ctx, tx, u.ID, model.RoleMember)
	})
}

// GrantRole gives the named role to the user. Unknown roles yield
// orm.ErrNotFound.
func (r *UserRepository) GrantRole(ctx context.Context, userID int32, role string) error {
	return grantRole(ctx, r.db, userID, role)
}

func grantRole(ctx context.Context, db orm.Querier, userID int32, name string) error {
	role, err := query.Roles(db).Scopes(scope.Eq("name", name)).First(ctx)
	if err != nil {
		return fmt.Errorf("role %s: %w", name, err)
	}
	link := &model.UserRole{UserID: userID, RoleID: role.ID}
	if err := query.UserRoles(db).Create(ctx, link); err != nil {
		return fmt.Errorf("grant role %s: %w", name, err)
	}
	return nil
}

// FindByID returns the user with its roles.
func (r *UserRepository) FindByID(ctx context.Context, id int32) (model.User, error) {
	return query.Users(r.db).Preload("Roles").Where("id = ?", id).First(ctx)
}

func (r *UserRepository) FindAll(ctx context.Context, scopes ...scope.Scope) ([]model.User, error) {
	return query.Users(r.db).Scopes(scopes...).OrderBy("id").Preload("Roles").All(ctx)
}

// FindCredentialsByEmail joins credentials to their user and returns the
// credentials of the user with the given email.
func (r *UserRepository) FindCredentialsByEmail(ctx context.Context, email string) (model.Credentials, error) {
	return query.Credentials(r.db).Join("User").Where("users.email = ?", email).First(ctx)
}

// Owner returns the user owning creds.
func (r *UserRepository) Owner(ctx context.Context, creds model.Credentials) (model.User, error) {
	return query.CredentialsUser(ctx, r.db, creds)
}

// TouchLastLogin sets the last login of u to the current time.
func (r *UserRepository) TouchLastLogin(ctx context.Context, u *model.User) error {
	now := orm.Now(ctx)
	u.LastLogin = &now
	return query.Users(r.db).Update(ctx, u)
}

func (r *UserRepository) Delete(ctx context.Context, id int32) error {
	return query.Users(r.db).Where("id = ?", id).Delete(ctx)
}
