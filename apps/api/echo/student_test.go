package echoapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_studentApi(t *testing.T) {
	env := setup(t)
	path := "/v1/students"

	tests := []httpTest{
		{name: "auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "empty import", method: http.MethodPost, path: path, token: env.token, body: []byte(`[]`), wantCode: http.StatusBadRequest},
		{
			name: "invalid import", method: http.MethodPost, path: path, token: env.token,
			body:     []byte(`[{"register_number":"601","full_name":"Priya","section":"A"},{"register_number":"6o2","full_name":"","section":"C"}]`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"1.register_number": "register number must only contain digits",
				"1.full_name": "this field is required",
				"1.section": "section must be one of A or B"
			}`),
		},
		{
			name: "import", method: http.MethodPost, path: path, token: env.token,
			body:     []byte(`[{"register_number":" 601 ","full_name":"Priya","section":"a"}]`),
			wantCode: http.StatusCreated,
		},
		{
			name: "query section", path: path + "?section=a", token: env.token,
		},
	}
	runHTTPTests(t, env.app, tests)

	t.Run("csv import", func(t *testing.T) {
		csv := "register_number,full_name,section\n501,Arun Kumar,B\n602,Ravi,A\n"
		req, rec := newAuthRequest(http.MethodPost, path, env.token, []byte(csv))
		req.Header.Set("Content-Type", "text/csv")
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, path+"?section=A", env.token)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.Contains(body, `"register_number":"601"`))
		assert.True(t, strings.Contains(body, `"full_name":"Ravi"`))
		assert.False(t, strings.Contains(body, `"register_number":"501"`))
	})

	t.Run("csv without header", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, env.token, []byte("501,Arun,B\n"))
		req.Header.Set("Content-Type", "text/csv")
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
