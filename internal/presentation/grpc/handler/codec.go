package handler

import (
	"encoding/json"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Clock 現在時刻の取得
type Clock func() time.Time

// decode structpb.Structをリクエスト型に詰め替える
// フィールド名はREST APIのJSONと同じ
func decode(in *structpb.Struct, v interface{}) error {
	if in == nil || len(in.GetFields()) == 0 {
		return nil
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, "invalid request message")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request message: %v", err)
	}
	return nil
}

// encode レスポンス型をstructpb.Structに変換する
func encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// resolveTime RFC3339の時刻を解釈する。空なら現在時刻
func resolveTime(raw string, clock Clock) (time.Time, error) {
	if raw == "" {
		return clock().UTC(), nil
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, status.Error(codes.InvalidArgument, "at must be RFC3339")
	}
	return at, nil
}

func required(name, value string) error {
	if value == "" {
		return status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return nil
}

// sideOrBuy 取引種別の省略時は購入として扱う
func sideOrBuy(side string) string {
	if side == "" {
		return "buy"
	}
	return side
}
