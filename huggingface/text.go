package huggingface

import (
	"context"

	"inference-gateway/config"
	"inference-gateway/models"
	"inference-gateway/provider"
)

type translateRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters translateParameters `json:"parameters"`
}

type translateParameters struct {
	SrcLang string `json:"src_lang"`
	TgtLang string `json:"tgt_lang"`
}

// Translate sends text with source and target language codes.
type Translate struct {
	client *Client
}

func (a *Translate) Kind() models.TaskKind { return models.KindTranslate }

func (a *Translate) Invoke(ctx context.Context, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, error) {
	task, ok := call.Task.(models.Translate)
	if !ok {
		return nil, wrongTask(a.Kind(), call.Task)
	}
	resp, err := a.client.postJSON(ctx, cfg, translateRequest{
		Inputs:     task.Text,
		Parameters: translateParameters{SrcLang: task.SourceLang, TgtLang: task.TargetLang},
	}, "application/json")
	if err != nil {
		return nil, err
	}
	translations, err := decodeList[provider.RawTranslation](cfg.Model, resp.Body)
	if err != nil {
		return nil, err
	}
	return provider.RawTranslations(translations), nil
}
