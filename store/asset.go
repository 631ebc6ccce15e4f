package store

import (
	"github.com/Sephra1/lisk-sdk/jsonx"
	"github.com/Sephra1/lisk-sdk/types"
)

func marshalAsset(asset *types.Asset) (string, error) {
	b, err := jsonx.Marshal(asset)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalAsset(raw string) (*types.Asset, error) {
	var asset types.Asset
	if err := jsonx.Unmarshal([]byte(raw), &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}
