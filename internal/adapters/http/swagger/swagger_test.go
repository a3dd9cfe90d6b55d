package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRegister(t *testing.T) {
	convey.Convey("Given a mux with the API docs registered", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		serve := func(method, path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))
			return w
		}

		convey.Convey("When fetching /openapi.yaml", func() {
			w := serve(http.MethodGet, "/openapi.yaml")

			convey.Convey("Then the embedded document should be served as YAML", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.Bytes(), convey.ShouldResemble, OpenAPI)
			})
		})

		convey.Convey("When fetching /api-docs", func() {
			w := serve(http.MethodGet, "/api-docs")

			convey.Convey("Then the ReDoc page should point at the document", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "Ticketsync API Docs")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "Redoc.init('/openapi.yaml'")
			})
		})

		convey.Convey("When posting to the docs", func() {
			w := serve(http.MethodPost, "/openapi.yaml")

			convey.Convey("Then the method should be refused", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestOpenAPIDocument(t *testing.T) {
	convey.Convey("Given the embedded OpenAPI document", t, func() {
		doc := string(OpenAPI)

		convey.Convey("Then it should describe every ticket route", func() {
			for _, path := range []string{
				"/api/tickets:",
				"/api/tickets/{id}/status:",
				"/api/tickets/{id}/notes:",
				"/api/vocabulary:",
				"/healthz:",
				"/stats:",
			} {
				convey.So(doc, convey.ShouldContainSubstring, path)
			}
		})

		convey.Convey("Then it should document the remote failure answers", func() {
			convey.So(doc, convey.ShouldContainSubstring, `"502": { $ref: "#/components/responses/Rejected" }`)
			convey.So(doc, convey.ShouldContainSubstring, `"503": { $ref: "#/components/responses/Unavailable" }`)
		})
	})
}

func TestRegisterWithNilMux(t *testing.T) {
	convey.Convey("Given a nil mux", t, func() {
		convey.Convey("Then registering should panic", func() {
			convey.So(func() { Register(context.Background(), nil) }, convey.ShouldPanic)
		})
	})
}
