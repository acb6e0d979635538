package imports

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StartImportsService serves the import surface on its own port, behind
// the gateway.
func StartImportsService(pgxPool *pgxpool.Pool, port int) {
	router := mux.NewRouter()
	router.HandleFunc("/imports/upload", UploadImport(pgxPool)).Methods("POST")
	router.HandleFunc("/imports/jobs", ListImportJobs(pgxPool)).Methods("GET")
	router.HandleFunc("/imports/jobs/{id}", GetImportJob(pgxPool)).Methods("GET")

	addr := fmt.Sprintf(":%d", port)
	log.Println("Imports Service started on", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Imports Service failed: %v", err)
	}
}
