package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/MikhailRaia/menu-scraper/internal/model"
	"github.com/MikhailRaia/menu-scraper/internal/proto"
	"github.com/MikhailRaia/menu-scraper/internal/validation"
)

type MenuGRPCServer struct {
	proto.UnimplementedMenuScraperServiceServer
	menuService MenuService
}

func NewMenuGRPCServer(menuService MenuService) *MenuGRPCServer {
	return &MenuGRPCServer{
		menuService: menuService,
	}
}

func (s *MenuGRPCServer) SaveBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	body, err := protojson.Marshal(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to read request: %v", err)
	}

	result, err := s.menuService.IngestBatch(ctx, body)
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrMalformedRequest), errors.Is(err, validation.ErrAllItemsInvalid):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		default:
			log.Error().Err(err).Msg("Failed to process batch")
			return nil, status.Error(codes.Internal, "failed to process batch request")
		}
	}

	return toStruct(model.BatchResponse{
		Message:        batchSuccessMessage,
		SavedCount:     result.SavedCount,
		TotalRequested: result.TotalRequested,
	})
}

func (s *MenuGRPCServer) ListMenuItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	items, err := s.menuService.ListItems(ctx,
		fields["restaurant"].GetStringValue(),
		fields["source_url"].GetStringValue(),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list menu items")
		return nil, status.Error(codes.Internal, "failed to retrieve menu items")
	}

	response := make([]model.MenuItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, item.Response())
	}

	return toStruct(map[string]any{"items": response})
}

func (s *MenuGRPCServer) Health(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.menuService.Health(ctx))
}

// toStruct converts a JSON-serialisable value into a Struct message.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}

	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}
