package repo

import (
	"context"
	"database/sql"

	"opsdeck/internal/domain"
)

const moduleColumns = `id,department_id,name,description,owner,risk_level,created_at`

func scanModule(scan func(dest ...any) error) (domain.WorkModule, error) {
	var m domain.WorkModule
	var desc sql.NullString
	err := scan(&m.ID, &m.DepartmentID, &m.Name, &desc, &m.Owner, &m.RiskLevel, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	m.Description = fromNull(desc)
	return m, err
}

func (r Repo) InsertModule(ctx context.Context, tx *sql.Tx, m domain.WorkModule) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO modules(`+moduleColumns+`) VALUES (?,?,?,?,?,?,?)`,
		m.ID, m.DepartmentID, m.Name, nullable(m.Description), m.Owner, m.RiskLevel, m.CreatedAt)
	return err
}

func (r Repo) GetModule(ctx context.Context, id string) (domain.WorkModule, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+moduleColumns+` FROM modules WHERE id=?`, id)
	return scanModule(row.Scan)
}

func (r Repo) UpdateModule(ctx context.Context, tx *sql.Tx, m domain.WorkModule) error {
	res, err := tx.ExecContext(ctx, `UPDATE modules SET department_id=?, name=?, description=?, owner=?, risk_level=? WHERE id=?`,
		m.DepartmentID, m.Name, nullable(m.Description), m.Owner, m.RiskLevel, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteModule cascades to the module's tasks: tasks are owned by their
// module, unlike department children which get promoted.
func (r Repo) DeleteModule(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE module_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListModules(ctx context.Context, departmentID string) ([]domain.WorkModule, error) {
	query := `SELECT ` + moduleColumns + ` FROM modules`
	var args []any
	if departmentID != "" {
		query += ` WHERE department_id=?`
		args = append(args, departmentID)
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkModule
	for rows.Next() {
		m, err := scanModule(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// --- tasks ---

const taskColumns = `id,module_id,operation,name,description,owner,risk_level,status,inputs_json,outputs_json,linked_sop_json,created_at`

func scanTask(scan func(dest ...any) error) (domain.WorkTask, error) {
	var t domain.WorkTask
	var op, desc, inputs, outputs, linked sql.NullString
	err := scan(&t.ID, &t.ModuleID, &op, &t.Name, &desc, &t.Owner, &t.RiskLevel, &t.Status, &inputs, &outputs, &linked, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.Operation = fromNull(op)
	t.Description = fromNull(desc)
	if t.Inputs, err = unmarshalIOs(inputs); err != nil {
		return t, err
	}
	if t.Outputs, err = unmarshalIOs(outputs); err != nil {
		return t, err
	}
	t.LinkedSopIDs, err = unmarshalStringSlice(linked)
	return t, err
}

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.WorkTask) error {
	inputs, err := marshalIOs(t.Inputs)
	if err != nil {
		return err
	}
	outputs, err := marshalIOs(t.Outputs)
	if err != nil {
		return err
	}
	linked, err := marshalStringSlice(t.LinkedSopIDs)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ModuleID, nullable(t.Operation), t.Name, nullable(t.Description), t.Owner,
		t.RiskLevel, t.Status, inputs, outputs, linked, t.CreatedAt)
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.WorkTask, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

func (r Repo) UpdateTask(ctx context.Context, tx *sql.Tx, t domain.WorkTask) error {
	inputs, err := marshalIOs(t.Inputs)
	if err != nil {
		return err
	}
	outputs, err := marshalIOs(t.Outputs)
	if err != nil {
		return err
	}
	linked, err := marshalStringSlice(t.LinkedSopIDs)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET module_id=?, operation=?, name=?, description=?, owner=?,
risk_level=?, status=?, inputs_json=?, outputs_json=?, linked_sop_json=? WHERE id=?`,
		t.ModuleID, nullable(t.Operation), t.Name, nullable(t.Description), t.Owner,
		t.RiskLevel, t.Status, inputs, outputs, linked, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListTasks(ctx context.Context, moduleID string) ([]domain.WorkTask, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if moduleID != "" {
		query += ` WHERE module_id=?`
		args = append(args, moduleID)
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkTask
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
