package swagger

import (
	"net/http"

	"github.com/swaggo/swag"
)

// Handler serves the registered OpenAPI document as JSON.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			http.Error(w, "swagger document unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})
}
