package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrStaffNotFound is an exported constant or variable used by the back-office engine.
	ErrStaffNotFound = errors.New("staff record not found")
	// ErrRoleNotFound is an exported constant or variable used by the back-office engine.
	ErrRoleNotFound = errors.New("role not found")
	// ErrEmailTaken is an exported constant or variable used by the back-office engine.
	ErrEmailTaken = errors.New("staff email already registered")
	// ErrUnavailable is an exported constant or variable used by the back-office engine.
	ErrUnavailable = errors.New("directory store unavailable")
)

// StaffRecord is one staff directory row.
type StaffRecord struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	RoleID      string `json:"role_id"`
	Active      bool   `json:"active"`
	CreatedAt   int64  `json:"created_at"`
	LastLoginAt int64  `json:"last_login_at,omitempty"`
}

// DisplayName returns the human-readable name for session payloads.
func (r *StaffRecord) DisplayName() string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name == "" {
		return r.Email
	}
	return name
}

// Role is a named bundle of permission tags.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Store persists staff records and roles in Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] with the given key prefix.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

// InsertStaff stores rec and claims its email and user-ID indexes.
func (s *Store) InsertStaff(ctx context.Context, rec StaffRecord) error {
	if rec.ID == "" || rec.UserID == "" || rec.Email == "" || rec.RoleID == "" {
		return errors.New("incomplete staff record")
	}

	ok, err := s.redis.SetNX(ctx, s.staffEmailKey(rec.Email), rec.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrEmailTaken
	}

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, s.staffKey(rec.ID), staffFields(rec))
	pipe.Set(ctx, s.staffUserKey(rec.UserID), rec.ID, 0)
	pipe.SAdd(ctx, s.staffAllKey(), rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		_ = s.redis.Del(ctx, s.staffEmailKey(rec.Email)).Err()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// GetStaff loads the staff record with the given ID.
func (s *Store) GetStaff(ctx context.Context, id string) (*StaffRecord, error) {
	fields, err := s.redis.HGetAll(ctx, s.staffKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrStaffNotFound
	}
	return staffFromFields(fields), nil
}

// GetStaffByEmail resolves an email address to its staff record.
func (s *Store) GetStaffByEmail(ctx context.Context, email string) (*StaffRecord, error) {
	id, err := s.redis.Get(ctx, s.staffEmailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.GetStaff(ctx, id)
}

// GetStaffByUserID resolves a credential user ID to its staff record.
func (s *Store) GetStaffByUserID(ctx context.Context, userID string) (*StaffRecord, error) {
	id, err := s.redis.Get(ctx, s.staffUserKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.GetStaff(ctx, id)
}

// ListStaff returns all staff records ordered by creation time.
func (s *Store) ListStaff(ctx context.Context) ([]StaffRecord, error) {
	ids, err := s.redis.SMembers(ctx, s.staffAllKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	records := make([]StaffRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetStaff(ctx, id)
		if err != nil {
			if errors.Is(err, ErrStaffNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt == records[j].CreatedAt {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt < records[j].CreatedAt
	})
	return records, nil
}

// SetActive flips the active flag on a staff record.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := s.GetStaff(ctx, id); err != nil {
		return err
	}
	if err := s.redis.HSet(ctx, s.staffKey(id), "active", boolField(active)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RecordLastLogin stamps the last successful login time. Callers treat
// failures as non-fatal.
func (s *Store) RecordLastLogin(ctx context.Context, id string, at int64) error {
	if err := s.redis.HSet(ctx, s.staffKey(id), "last_login_at", strconv.FormatInt(at, 10)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DeleteStaff removes a staff record and its indexes. Missing records
// are not an error.
func (s *Store) DeleteStaff(ctx context.Context, id string) error {
	rec, err := s.GetStaff(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			return nil
		}
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, s.staffKey(id), s.staffEmailKey(rec.Email), s.staffUserKey(rec.UserID))
	pipe.SRem(ctx, s.staffAllKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// InsertRole stores role and claims its name index.
func (s *Store) InsertRole(ctx context.Context, role Role) error {
	if role.ID == "" || role.Name == "" || len(role.Permissions) == 0 {
		return errors.New("incomplete role")
	}

	ok, err := s.redis.SetNX(ctx, s.roleNameKey(role.Name), role.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("role %q already exists", role.Name)
	}

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, s.roleKey(role.ID), map[string]interface{}{
		"id":          role.ID,
		"name":        role.Name,
		"permissions": strings.Join(role.Permissions, ","),
	})
	pipe.SAdd(ctx, s.roleAllKey(), role.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		_ = s.redis.Del(ctx, s.roleNameKey(role.Name)).Err()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetRole loads the role with the given ID.
func (s *Store) GetRole(ctx context.Context, id string) (*Role, error) {
	fields, err := s.redis.HGetAll(ctx, s.roleKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrRoleNotFound
	}
	return roleFromFields(fields), nil
}

// GetRoleByName resolves a role name to its record.
func (s *Store) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	id, err := s.redis.Get(ctx, s.roleNameKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.GetRole(ctx, id)
}

// ListRoles returns all roles ordered by name.
func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	ids, err := s.redis.SMembers(ctx, s.roleAllKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	roles := make([]Role, 0, len(ids))
	for _, id := range ids {
		role, err := s.GetRole(ctx, id)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				continue
			}
			return nil, err
		}
		roles = append(roles, *role)
	}

	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func staffFields(rec StaffRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":            rec.ID,
		"user_id":       rec.UserID,
		"email":         rec.Email,
		"first_name":    rec.FirstName,
		"last_name":     rec.LastName,
		"role_id":       rec.RoleID,
		"active":        boolField(rec.Active),
		"created_at":    strconv.FormatInt(rec.CreatedAt, 10),
		"last_login_at": strconv.FormatInt(rec.LastLoginAt, 10),
	}
}

func staffFromFields(fields map[string]string) *StaffRecord {
	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	lastLogin, _ := strconv.ParseInt(fields["last_login_at"], 10, 64)
	return &StaffRecord{
		ID:          fields["id"],
		UserID:      fields["user_id"],
		Email:       fields["email"],
		FirstName:   fields["first_name"],
		LastName:    fields["last_name"],
		RoleID:      fields["role_id"],
		Active:      fields["active"] == "1",
		CreatedAt:   createdAt,
		LastLoginAt: lastLogin,
	}
}

func roleFromFields(fields map[string]string) *Role {
	var perms []string
	if raw := fields["permissions"]; raw != "" {
		perms = strings.Split(raw, ",")
	}
	return &Role{
		ID:          fields["id"],
		Name:        fields["name"],
		Permissions: perms,
	}
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (s *Store) staffKey(id string) string {
	return s.prefix + ":staff:" + id
}

func (s *Store) staffEmailKey(email string) string {
	return s.prefix + ":staff:email:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) staffUserKey(userID string) string {
	return s.prefix + ":staff:uid:" + userID
}

func (s *Store) staffAllKey() string {
	return s.prefix + ":staff:all"
}

func (s *Store) roleKey(id string) string {
	return s.prefix + ":role:" + id
}

func (s *Store) roleNameKey(name string) string {
	return s.prefix + ":role:name:" + strings.ToLower(strings.TrimSpace(name))
}

func (s *Store) roleAllKey() string {
	return s.prefix + ":role:all"
}
