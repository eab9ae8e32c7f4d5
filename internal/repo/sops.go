package repo

import (
	"context"
	"database/sql"

	"opsdeck/internal/domain"
)

const sopColumns = `id,title,format,owner,last_edited_by,approved_by,current_version,status,effective_date,created_at,steps_json,file_name,ai_analysis,business_process_id`

func scanSop(scan func(dest ...any) error) (domain.SOPRecord, error) {
	var s domain.SOPRecord
	var lastEdited, approved, effective, steps, fileName, analysis, process sql.NullString
	err := scan(&s.ID, &s.Title, &s.Format, &s.Owner, &lastEdited, &approved, &s.CurrentVersion,
		&s.Status, &effective, &s.CreatedAt, &steps, &fileName, &analysis, &process)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.LastEditedBy = fromNull(lastEdited)
	s.ApprovedBy = fromNull(approved)
	s.EffectiveDate = fromNull(effective)
	s.FileName = fromNull(fileName)
	s.AIAnalysis = fromNull(analysis)
	if process.Valid {
		p := process.String
		s.BusinessProcessID = &p
	}
	s.Steps, err = unmarshalSteps(steps)
	return s, err
}

func (r Repo) InsertSop(ctx context.Context, tx *sql.Tx, s domain.SOPRecord) error {
	steps, err := marshalSteps(s.Steps)
	if err != nil {
		return err
	}
	var process any
	if s.BusinessProcessID != nil {
		process = *s.BusinessProcessID
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO sops(`+sopColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.Title, s.Format, s.Owner, nullable(s.LastEditedBy), nullable(s.ApprovedBy),
		s.CurrentVersion, s.Status, nullable(s.EffectiveDate), s.CreatedAt, steps,
		nullable(s.FileName), nullable(s.AIAnalysis), process)
	return err
}

func (r Repo) GetSop(ctx context.Context, id string) (domain.SOPRecord, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+sopColumns+` FROM sops WHERE id=?`, id)
	return scanSop(row.Scan)
}

func (r Repo) UpdateSop(ctx context.Context, tx *sql.Tx, s domain.SOPRecord) error {
	steps, err := marshalSteps(s.Steps)
	if err != nil {
		return err
	}
	var process any
	if s.BusinessProcessID != nil {
		process = *s.BusinessProcessID
	}
	res, err := tx.ExecContext(ctx, `UPDATE sops SET title=?, format=?, owner=?, last_edited_by=?, approved_by=?,
current_version=?, status=?, effective_date=?, steps_json=?, file_name=?, ai_analysis=?, business_process_id=? WHERE id=?`,
		s.Title, s.Format, s.Owner, nullable(s.LastEditedBy), nullable(s.ApprovedBy),
		s.CurrentVersion, s.Status, nullable(s.EffectiveDate), steps,
		nullable(s.FileName), nullable(s.AIAnalysis), process, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteSop(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM sop_versions WHERE sop_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sops WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListSops(ctx context.Context, processID, status string) ([]domain.SOPRecord, error) {
	query := `SELECT ` + sopColumns + ` FROM sops`
	var clauses []string
	var args []any
	if processID != "" {
		clauses = append(clauses, `business_process_id=?`)
		args = append(args, processID)
	}
	if status != "" {
		clauses = append(clauses, `status=?`)
		args = append(args, status)
	}
	for i, c := range clauses {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SOPRecord
	for rows.Next() {
		s, err := scanSop(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// SopExists reports whether a SOP id resolves. Tasks link SOPs by bare id
// strings with no integrity enforcement, so the audit needs this.
func (r Repo) SopExists(ctx context.Context, id string) (bool, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT 1 FROM sops WHERE id=? LIMIT 1`, id)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// --- version snapshots ---

func (r Repo) InsertSopVersion(ctx context.Context, tx *sql.Tx, v domain.SOPVersion) error {
	steps, err := marshalSteps(v.Steps)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO sop_versions(id,sop_id,version,status,created_at,created_by,steps_json,file_name,ai_analysis)
VALUES (?,?,?,?,?,?,?,?,?)`,
		v.ID, v.SopID, v.Version, v.Status, v.CreatedAt, nullable(v.CreatedBy), steps,
		nullable(v.FileName), nullable(v.AIAnalysis))
	return err
}

func (r Repo) ListSopVersions(ctx context.Context, sopID string) ([]domain.SOPVersion, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,sop_id,version,status,created_at,created_by,steps_json,file_name,ai_analysis
FROM sop_versions WHERE sop_id=? ORDER BY created_at, id`, sopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SOPVersion
	for rows.Next() {
		var v domain.SOPVersion
		var createdBy, steps, fileName, analysis sql.NullString
		if err := rows.Scan(&v.ID, &v.SopID, &v.Version, &v.Status, &v.CreatedAt, &createdBy, &steps, &fileName, &analysis); err != nil {
			return nil, err
		}
		v.CreatedBy = fromNull(createdBy)
		v.FileName = fromNull(fileName)
		v.AIAnalysis = fromNull(analysis)
		if v.Steps, err = unmarshalSteps(steps); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// --- business processes ---

func (r Repo) InsertProcess(ctx context.Context, tx *sql.Tx, p domain.BusinessProcess) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO business_processes(id,name,description,created_at) VALUES (?,?,?,?)`,
		p.ID, p.Name, nullable(p.Description), p.CreatedAt)
	return err
}

func (r Repo) GetProcess(ctx context.Context, id string) (domain.BusinessProcess, error) {
	var p domain.BusinessProcess
	var desc sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,description,created_at FROM business_processes WHERE id=?`, id).
		Scan(&p.ID, &p.Name, &desc, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	p.Description = fromNull(desc)
	return p, err
}

func (r Repo) UpdateProcess(ctx context.Context, tx *sql.Tx, p domain.BusinessProcess) error {
	res, err := tx.ExecContext(ctx, `UPDATE business_processes SET name=?, description=? WHERE id=?`,
		p.Name, nullable(p.Description), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProcess unlinks, never cascades: SOPs outlive their grouping tag.
func (r Repo) DeleteProcess(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE sops SET business_process_id=NULL WHERE business_process_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM business_processes WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListProcesses(ctx context.Context) ([]domain.BusinessProcess, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,description,created_at FROM business_processes ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.BusinessProcess
	for rows.Next() {
		var p domain.BusinessProcess
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &desc, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Description = fromNull(desc)
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) ProcessExists(ctx context.Context, id string) (bool, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT 1 FROM business_processes WHERE id=? LIMIT 1`, id)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}
