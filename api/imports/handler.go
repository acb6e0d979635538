package imports

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"AestrakTrack/api"
	"AestrakTrack/internal/config"
)

func getFileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// Handler: UploadImport accepts one PO export and one QS export plus the
// organization and user resolved upstream, opens an import job and runs
// the reconciliation pipeline to completion.
func UploadImport(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Failed to parse multipart form")
			return
		}
		organizationID := r.FormValue("organization_id")
		userID := r.FormValue("user_id")
		if organizationID == "" || userID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "organization_id and user_id are required")
			return
		}

		poHeaders := r.MultipartForm.File["po_file"]
		qsHeaders := r.MultipartForm.File["qs_file"]
		if len(poHeaders) == 0 || len(qsHeaders) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, "Both po_file and qs_file are required")
			return
		}
		poHeader, qsHeader := poHeaders[0], qsHeaders[0]

		for _, fh := range []*multipart.FileHeader{poHeader, qsHeader} {
			switch getFileExt(fh.Filename) {
			case ".xlsx", ".xls", ".csv":
			default:
				api.RespondWithError(w, http.StatusBadRequest, "Unsupported file type: "+fh.Filename)
				return
			}
		}

		poBuf, err := readUpload(poHeader)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Failed to read file: "+poHeader.Filename)
			return
		}
		qsBuf, err := readUpload(qsHeader)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Failed to read file: "+qsHeader.Filename)
			return
		}

		store := NewPgStore(pgxPool)
		fileName := fmt.Sprintf("%s + %s", poHeader.Filename, qsHeader.Filename)
		hash := sha256.Sum256(append(append([]byte{}, poBuf...), qsBuf...))
		jobID, err := store.CreateImportJob(ctx, organizationID, "purchase_orders", fileName, hex.EncodeToString(hash[:]), userID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Failed to create import job: "+err.Error())
			return
		}

		result := ProcessExcelImport(ctx, store, ProcessParams{
			POFileBuffer:   poBuf,
			QSFileBuffer:   qsBuf,
			POFileExt:      getFileExt(poHeader.Filename),
			QSFileExt:      getFileExt(qsHeader.Filename),
			OrganizationID: organizationID,
			ImportJobID:    jobID,
			UserID:         userID,
		})

		w.Header().Set("Content-Type", "application/json")
		if !result.Success {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":    false,
				"job_id":     jobID,
				"error":      strings.Join(result.Errors, "; "),
				"error_kind": result.ErrorKind,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"job_id":         jobID,
			"rows_processed": result.RowsProcessed,
			"metadata":       result.Metadata,
		})
	}
}

// Handler: GetImportJob returns one job with its metadata/change report.
func GetImportJob(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := mux.Vars(r)["id"]
		job, err := fetchImportJob(r, pgxPool, jobID)
		if err != nil {
			api.RespondWithError(w, http.StatusNotFound, "Import job not found: "+jobID)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "job": job})
	}
}

// Handler: ListImportJobs returns an organization's recent jobs, newest
// first.
func ListImportJobs(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		organizationID := r.URL.Query().Get("organization_id")
		if organizationID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "organization_id is required")
			return
		}
		limit := 10
		if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
			limit = l
		}

		rows, err := pgxPool.Query(ctx, `
			SELECT id, organization_id, type, status, file_name, file_hash,
			       COALESCE(row_count, 0), COALESCE(error_count, 0), metadata,
			       error_report_path, created_by,
			       to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SSZ'),
			       to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')
			FROM import_jobs
			WHERE organization_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, organizationID, limit)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		jobs := make([]ImportJob, 0)
		for rows.Next() {
			job, err := scanImportJob(rows.Scan)
			if err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			jobs = append(jobs, job)
		}
		api.RespondWithPayload(w, true, "", jobs)
	}
}

func fetchImportJob(r *http.Request, pgxPool *pgxpool.Pool, jobID string) (ImportJob, error) {
	row := pgxPool.QueryRow(r.Context(), `
		SELECT id, organization_id, type, status, file_name, file_hash,
		       COALESCE(row_count, 0), COALESCE(error_count, 0), metadata,
		       error_report_path, created_by,
		       to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SSZ'),
		       to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')
		FROM import_jobs
		WHERE id = $1
	`, jobID)
	return scanImportJob(row.Scan)
}

func scanImportJob(scan func(...interface{}) error) (ImportJob, error) {
	var job ImportJob
	var meta []byte
	var fileHash *string
	err := scan(&job.ID, &job.OrganizationID, &job.Type, &job.Status, &job.FileName,
		&fileHash, &job.RowCount, &job.ErrorCount, &meta, &job.ErrorReportPath,
		&job.CreatedBy, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return ImportJob{}, err
	}
	if fileHash != nil {
		job.FileHash = *fileHash
	}
	if len(meta) > 0 {
		var m ImportMetadata
		if err := json.Unmarshal(meta, &m); err == nil {
			job.Metadata = &m
		}
	}
	return job, nil
}
