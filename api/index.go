package handler

import (
	"net/http"

	"carbon-ledger/bootstrap"
	"carbon-ledger/internal/interfaces/router"
)

var h http.Handler

func init() {
	fiberApp, err := bootstrap.New()
	if err != nil {
		panic("app create: " + err.Error())
	}
	h = router.Handler(fiberApp)
}

// Handler is the Vercel serverless entry point. All requests are rewritten here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	h.ServeHTTP(w, r)
}
