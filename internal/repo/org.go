package repo

import (
	"context"
	"database/sql"

	"opsdeck/internal/domain"
)

// --- tiers ---

func (r Repo) ListTiers(ctx context.Context) ([]domain.RoleTier, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,COALESCE(description,'') FROM tiers ORDER BY CASE id WHEN 'strategic' THEN 0 WHEN 'managerial' THEN 1 ELSE 2 END`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.RoleTier
	for rows.Next() {
		var t domain.RoleTier
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) GetTier(ctx context.Context, id string) (domain.RoleTier, error) {
	var t domain.RoleTier
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,COALESCE(description,'') FROM tiers WHERE id=?`, id).
		Scan(&t.ID, &t.Name, &t.Description)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

func (r Repo) UpdateTier(ctx context.Context, tx *sql.Tx, t domain.RoleTier) error {
	res, err := tx.ExecContext(ctx, `UPDATE tiers SET name=?, description=? WHERE id=?`, t.Name, nullable(t.Description), t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- roles ---

func scanRole(scan func(dest ...any) error) (domain.OrgRole, error) {
	var role domain.OrgRole
	var desc sql.NullString
	err := scan(&role.ID, &role.Name, &desc, &role.TierID, &role.RaciType, &role.CreatedAt)
	if err == sql.ErrNoRows {
		return role, ErrNotFound
	}
	role.Description = fromNull(desc)
	return role, err
}

const roleColumns = `id,name,description,tier_id,raci_type,created_at`

func (r Repo) InsertRole(ctx context.Context, tx *sql.Tx, role domain.OrgRole) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO roles(`+roleColumns+`) VALUES (?,?,?,?,?,?)`,
		role.ID, role.Name, nullable(role.Description), role.TierID, role.RaciType, role.CreatedAt)
	return err
}

func (r Repo) GetRole(ctx context.Context, id string) (domain.OrgRole, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id=?`, id)
	return scanRole(row.Scan)
}

func (r Repo) UpdateRole(ctx context.Context, tx *sql.Tx, role domain.OrgRole) error {
	res, err := tx.ExecContext(ctx, `UPDATE roles SET name=?, description=?, tier_id=?, raci_type=? WHERE id=?`,
		role.Name, nullable(role.Description), role.TierID, role.RaciType, role.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteRole(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListRoles(ctx context.Context, tierID string) ([]domain.OrgRole, error) {
	query := `SELECT ` + roleColumns + ` FROM roles`
	args := []any{}
	if tierID != "" {
		query += ` WHERE tier_id=?`
		args = append(args, tierID)
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.OrgRole
	for rows.Next() {
		role, err := scanRole(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, role)
	}
	return res, rows.Err()
}

// RoleNameExists reports whether any role carries the given name. Used by
// the dangling-reference audit; head-of-department references are by name.
func (r Repo) RoleNameExists(ctx context.Context, name string) (bool, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT 1 FROM roles WHERE name=? LIMIT 1`, name)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// --- departments ---

func scanDepartment(scan func(dest ...any) error) (domain.Department, error) {
	var d domain.Department
	var desc, head, parent sql.NullString
	err := scan(&d.ID, &d.Name, &desc, &head, &parent, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	d.Description = fromNull(desc)
	d.HeadOfDepartment = fromNull(head)
	if parent.Valid {
		p := parent.String
		d.ParentID = &p
	}
	return d, err
}

const departmentColumns = `id,name,description,head_of_department,parent_id,created_at`

func (r Repo) InsertDepartment(ctx context.Context, tx *sql.Tx, d domain.Department) error {
	var parent any
	if d.ParentID != nil {
		parent = *d.ParentID
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO departments(`+departmentColumns+`) VALUES (?,?,?,?,?,?)`,
		d.ID, d.Name, nullable(d.Description), nullable(d.HeadOfDepartment), parent, d.CreatedAt)
	return err
}

func (r Repo) GetDepartment(ctx context.Context, id string) (domain.Department, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id=?`, id)
	return scanDepartment(row.Scan)
}

func (r Repo) UpdateDepartment(ctx context.Context, tx *sql.Tx, d domain.Department) error {
	var parent any
	if d.ParentID != nil {
		parent = *d.ParentID
	}
	res, err := tx.ExecContext(ctx, `UPDATE departments SET name=?, description=?, head_of_department=?, parent_id=? WHERE id=?`,
		d.Name, nullable(d.Description), nullable(d.HeadOfDepartment), parent, d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDepartment promotes the target's children to its own parent and
// removes the target, all inside the caller's transaction.
func (r Repo) DeleteDepartment(ctx context.Context, tx *sql.Tx, d domain.Department) error {
	var parent any
	if d.ParentID != nil {
		parent = *d.ParentID
	}
	if _, err := tx.ExecContext(ctx, `UPDATE departments SET parent_id=? WHERE parent_id=?`, parent, d.ID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM departments WHERE id=?`, d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) listDepartments(ctx context.Context, query string, args ...any) ([]domain.Department, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Department
	for rows.Next() {
		d, err := scanDepartment(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	return r.listDepartments(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY created_at, id`)
}

func (r Repo) RootDepartments(ctx context.Context) ([]domain.Department, error) {
	return r.listDepartments(ctx, `SELECT `+departmentColumns+` FROM departments WHERE parent_id IS NULL ORDER BY created_at, id`)
}

func (r Repo) ChildDepartments(ctx context.Context, parentID string) ([]domain.Department, error) {
	return r.listDepartments(ctx, `SELECT `+departmentColumns+` FROM departments WHERE parent_id=? ORDER BY created_at, id`, parentID)
}
