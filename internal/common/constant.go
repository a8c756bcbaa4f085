package common

// AuthorizationHeaderName is the gRPC metadata key that carries
// "Bearer <token>" credentials.
const AuthorizationHeaderName = "authorization"

// AccessTokenHeaderName is the legacy metadata key carrying a bare access
// token. It is still accepted on inbound requests.
const AccessTokenHeaderName = "access_token"

// BearerScheme is the authorization scheme prefix, compared case-insensitively.
const BearerScheme = "bearer"

// TokenTypeBearer is reported to clients next to an issued access token.
const TokenTypeBearer = "bearer"
