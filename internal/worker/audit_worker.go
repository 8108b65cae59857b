package worker

import (
	"github.com/jdevops/portal-login/internal/service"
)

// StartAuditWorker registers audit log handlers on the dispatcher.
func StartAuditWorker(audit *service.AuditService) {
	if audit == nil {
		return
	}
	audit.RegisterHandlers()
}
