package dash

import (
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

func StartDashService(pgxPool *pgxpool.Pool, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dash/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Dashboard Service"))
	})

	mux.Handle("/dash/purchase-orders", GetPurchaseOrders(pgxPool))
	mux.Handle("/dash/quantity-surveys", GetQuantitySurveys(pgxPool))
	mux.Handle("/dash/utilization-distribution", GetUtilizationDistribution(pgxPool))
	mux.Handle("/dash/top-pos", GetTopPurchaseOrders(pgxPool))
	mux.Handle("/dash/summary", GetOrganizationSummary(pgxPool))

	addr := fmt.Sprintf(":%d", port)
	log.Println("Dashboard Service started on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Dashboard Service failed: %v", err)
	}
}
