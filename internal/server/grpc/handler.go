package grpc

import (
	"context"
	"errors"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/eeye/internal/common"
	"github.com/dmitrijs2005/eeye/internal/server/users"
)

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func userResponse(u *users.User) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"id":                strconv.FormatInt(u.ID, 10),
		"email":             u.Email,
		"role":              u.Role,
		"subscriptionLevel": u.SubscriptionLevel,
		"isActive":          u.IsActive,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := s.users.Register(ctx, users.RegisterRequest{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, status.Error(codes.AlreadyExists, "email already registered")
		default:
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	return userResponse(user)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tokens, err := s.users.Login(ctx, users.LoginRequest{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, common.ErrorUnauthorized):
			return nil, status.Error(codes.Unauthenticated, "Incorrect email or password")
		default:
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	out, err := structpb.NewStruct(map[string]any{
		"access_token": tokens.AccessToken,
		"token_type":   tokens.TokenType,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, msgInvalidCredentials)
	}
	return userResponse(user)
}
