// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"github.com/gorilla/handlers"

	"github.com/relabs-tech/rentdesk/core/access"
	"github.com/relabs-tech/rentdesk/core/logger"
)

func (b *Backend) handleCORS() {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"POST", "GET", "OPTIONS", "PUT", "DELETE", "PATCH"}),
		handlers.AllowedHeaders([]string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "If-None-Match", logger.RequestIDHeader, access.UserIDHeader, access.RolesHeader}),
		handlers.ExposedHeaders([]string{logger.RequestIDHeader}),
		handlers.MaxAge(86400), // 24 hours
	)
	b.router.Use(cors)
}
