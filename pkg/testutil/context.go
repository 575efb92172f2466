package testutil

import (
	"net/http"

	id "agora/pkg/domain"
	"agora/pkg/requestcontext"
)

// WithMember adds an authenticated member ID to the request context, as the
// bearer-token middleware would.
func WithMember(req *http.Request, memberID id.MemberID) *http.Request {
	return req.WithContext(requestcontext.WithMemberID(req.Context(), memberID))
}
