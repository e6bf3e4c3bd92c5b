package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/departments"
	"github.com/odyssey-hr/odyssey-hr/internal/observability"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
	"github.com/odyssey-hr/odyssey-hr/internal/roles"
	"github.com/odyssey-hr/odyssey-hr/internal/shared"
	"github.com/odyssey-hr/odyssey-hr/jobs"
)

// DefaultBcryptCost is used when Config.BcryptCost is zero.
const DefaultBcryptCost = 12

const logoutMessage = "Logged out successfully"

// RoleResolver maps a registry role to its stored row.
type RoleResolver interface {
	Resolve(ctx context.Context, role rbac.Role) (roles.Role, error)
}

// DepartmentResolver maps a department code to the stored department.
type DepartmentResolver interface {
	ResolveCode(ctx context.Context, code string) (departments.Department, error)
}

// Auditor records auth events.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MailQueue enqueues transactional e-mail.
type MailQueue interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Metrics counts auth attempts.
type Metrics interface {
	AuthAttempt(operation, outcome string)
}

// Deps collects the collaborators of Service. Audit, Mail and Metrics are optional.
type Deps struct {
	Repo        Repository
	Roles       RoleResolver
	Departments DepartmentResolver
	Issuer      *claims.Issuer
	Audit       Auditor
	Mail        MailQueue
	Metrics     Metrics
	Logger      *slog.Logger
	BcryptCost  int
}

// Service wraps authentication business rules.
type Service struct {
	repo      Repository
	roles     RoleResolver
	depts     DepartmentResolver
	issuer    *claims.Issuer
	audit     Auditor
	mail      MailQueue
	metrics   Metrics
	logger    *slog.Logger
	validate  *validator.Validate
	cost      int
	dummyHash []byte
}

// NewService constructs a new Service.
func NewService(deps Deps) (*Service, error) {
	if deps.Repo == nil || deps.Roles == nil || deps.Issuer == nil {
		return nil, errors.New("auth: repository, role resolver and issuer are required")
	}
	cost := deps.BcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range", cost)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("auth: seed dummy hash: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword(secret, cost)
	if err != nil {
		return nil, fmt.Errorf("auth: dummy hash: %w", err)
	}
	return &Service{
		repo:      deps.Repo,
		roles:     deps.Roles,
		depts:     deps.Departments,
		issuer:    deps.Issuer,
		audit:     deps.Audit,
		mail:      deps.Mail,
		metrics:   deps.Metrics,
		logger:    logger,
		validate:  validator.New(),
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

// Register creates an identity and signs its first session claim.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Result, error) {
	result, err := s.register(ctx, input)
	s.count("register", err)
	return result, err
}

func (s *Service) register(ctx context.Context, input RegisterInput) (Result, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.NationalID = strings.TrimSpace(input.NationalID)
	input.EmployeeNumber = strings.TrimSpace(input.EmployeeNumber)
	input.DepartmentCode = strings.TrimSpace(input.DepartmentCode)
	// A taken email is a conflict whatever else is wrong with the request.
	if err := s.checkUnique(ctx, input); err != nil {
		return Result{}, err
	}
	if err := s.validate.Struct(input); err != nil {
		return Result{}, shared.InvalidInput("%s", describeValidation(err))
	}
	hired, err := time.Parse("2006-01-02", input.DateOfHire)
	if err != nil {
		return Result{}, shared.InvalidInput("dateOfHire must be an ISO date")
	}

	role, ok := rbac.ParseRole(input.Role)
	if !ok {
		return Result{}, shared.InvalidInput("unknown role %q", input.Role)
	}
	roleRow, err := s.roles.Resolve(ctx, role)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return Result{}, shared.InvalidInput("role %q is not provisioned", role)
		}
		return Result{}, err
	}

	var deptID *uuid.UUID
	if input.DepartmentCode != "" {
		if s.depts == nil {
			return Result{}, shared.InvalidInput("departments are not available")
		}
		dept, err := s.depts.ResolveCode(ctx, input.DepartmentCode)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return Result{}, shared.InvalidInput("unknown department %q", input.DepartmentCode)
			}
			return Result{}, err
		}
		deptID = &dept.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return Result{}, fmt.Errorf("auth: hash password: %w", err)
	}
	hashed := string(hash)
	identity := Identity{
		ID:             uuid.New(),
		Email:          input.Email,
		PasswordHash:   &hashed,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		NationalID:     input.NationalID,
		EmployeeNumber: input.EmployeeNumber,
		DateOfHire:     hired,
		RoleID:         roleRow.ID,
		DepartmentID:   deptID,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, identity); err != nil {
		return Result{}, err
	}

	result, err := s.issue(identity, role)
	if err != nil {
		return Result{}, err
	}
	s.record(ctx, shared.AuditActionRegister, &identity.ID, identity.ID.String(), map[string]any{"role": string(role)})
	s.sendWelcome(ctx, identity, role)
	s.logger.Info("identity registered", slog.String("id", identity.ID.String()), slog.String("role", string(role)))
	return result, nil
}

// checkUnique runs the uniqueness lookups concurrently and reports the first
// conflict in field order email, national id, employee number. Empty fields
// are left to validation.
func (s *Service) checkUnique(ctx context.Context, input RegisterInput) error {
	var emailTaken, nationalTaken, numberTaken bool
	g, gctx := errgroup.WithContext(ctx)
	lookup := func(value string, exists func(context.Context, string) (bool, error), taken *bool) {
		if value == "" {
			return
		}
		g.Go(func() error {
			var err error
			*taken, err = exists(gctx, value)
			return err
		})
	}
	lookup(input.Email, s.repo.ExistsByEmail, &emailTaken)
	lookup(input.NationalID, s.repo.ExistsByNationalID, &nationalTaken)
	lookup(input.EmployeeNumber, s.repo.ExistsByEmployeeNumber, &numberTaken)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("auth: uniqueness check: %w", err)
	}
	switch {
	case emailTaken:
		return shared.Conflict("email already registered")
	case nationalTaken:
		return shared.Conflict("national id already registered")
	case numberTaken:
		return shared.Conflict("employee number already registered")
	}
	return nil
}

// Login verifies credentials. Every rejection returns
// shared.ErrInvalidCredentials; the specific cause is only logged.
func (s *Service) Login(ctx context.Context, input LoginInput) (Result, error) {
	result, err := s.login(ctx, input)
	s.count("login", err)
	return result, err
}

func (s *Service) login(ctx context.Context, input LoginInput) (Result, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return Result{}, s.reject(ctx, email, nil, "missing email or password")
	}
	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(input.Password))
			return Result{}, s.reject(ctx, email, nil, "unknown email")
		}
		return Result{}, err
	}
	if identity.PasswordHash == nil || *identity.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(input.Password))
		return Result{}, s.reject(ctx, email, &identity.ID, "password not set; administrator must set a password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*identity.PasswordHash), []byte(input.Password)); err != nil {
		return Result{}, s.reject(ctx, email, &identity.ID, "password mismatch")
	}
	if !identity.IsActive {
		return Result{}, s.reject(ctx, email, &identity.ID, "account inactive")
	}
	if identity.RoleName == nil {
		return Result{}, s.reject(ctx, email, &identity.ID, "role reference does not resolve")
	}
	role := rbac.Role(*identity.RoleName)
	if !role.Valid() {
		return Result{}, s.reject(ctx, email, &identity.ID, fmt.Sprintf("stored role %q is not in the registry", *identity.RoleName))
	}

	result, err := s.issue(identity, role)
	if err != nil {
		return Result{}, err
	}
	s.record(ctx, shared.AuditActionLogin, &identity.ID, identity.ID.String(), nil)
	return result, nil
}

// maxAuditEmail bounds how much of a caller-supplied email reaches logs and
// the audit trail.
const maxAuditEmail = 64

func (s *Service) reject(ctx context.Context, email string, actor *uuid.UUID, reason string) error {
	attempted := truncate(email, maxAuditEmail)
	s.logger.Warn("login rejected", slog.String("email", attempted), slog.String("reason", reason))
	// Unmatched attempts carry caller text, so it stays out of entity_id.
	entityID := "unknown"
	if actor != nil {
		entityID = actor.String()
	}
	meta := map[string]any{"reason": reason}
	if actor == nil && attempted != "" {
		meta["email"] = attempted
	}
	s.record(ctx, shared.AuditActionLoginFailure, actor, entityID, meta)
	return shared.ErrInvalidCredentials
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

// Logout acknowledges the caller. Tokens are stateless, so a copied token
// stays valid until it expires.
func (s *Service) Logout(ctx context.Context, claim claims.SessionClaim) Ack {
	var actor *uuid.UUID
	if id, err := uuid.Parse(claim.Subject); err == nil {
		actor = &id
	}
	s.record(ctx, shared.AuditActionLogout, actor, claim.Subject, nil)
	s.count("logout", nil)
	return Ack{Message: logoutMessage}
}

func (s *Service) issue(identity Identity, role rbac.Role) (Result, error) {
	claim := claims.SessionClaim{
		Subject:    identity.ID.String(),
		Email:      identity.Email,
		Role:       role,
		EmployeeID: identity.EmployeeNumber,
	}
	if identity.DepartmentID != nil {
		claim.DepartmentID = identity.DepartmentID.String()
	}
	token, signed, err := s.issuer.Issue(claim)
	if err != nil {
		return Result{}, fmt.Errorf("auth: issue claim: %w", err)
	}
	return Result{AccessToken: token, User: signed}, nil
}

func (s *Service) record(ctx context.Context, action string, actor *uuid.UUID, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "employee",
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) sendWelcome(ctx context.Context, identity Identity, role rbac.Role) {
	if s.mail == nil {
		return
	}
	if _, err := s.mail.EnqueueSendEmail(ctx, jobs.WelcomeEmail(identity.Email, identity.FirstName, string(role))); err != nil {
		s.logger.Warn("enqueue welcome email", slog.String("id", identity.ID.String()), slog.Any("error", err))
	}
}

func (s *Service) count(operation string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := observability.OutcomeSuccess
	switch status := httpx.StatusFor(err); {
	case err == nil:
	case status == http.StatusInternalServerError:
		outcome = observability.OutcomeError
	default:
		outcome = observability.OutcomeRejected
	}
	s.metrics.AuthAttempt(operation, outcome)
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
