package receitanet

import (
	"sort"
	"time"

	"receitanet-engine/internal/dates"
	"receitanet-engine/internal/rpa"
)

// Template images, by folder under the images root.
var (
	imgIcon          = rpa.Img("botoes", "icon.png")
	imgQuit          = rpa.Img("botoes", "sair.png")
	imgClose         = rpa.Img("botoes", "fechar.png")
	imgCloseAlt      = rpa.Img("botoes", "fechar2.png")
	imgEnter         = rpa.Img("botoes", "entrar.png")
	imgProfileIcon   = rpa.Img("botoes", "icone_trocar_perfil.png")
	imgSwitchProfile = rpa.Img("botoes", "trocar_perfil.png")
	imgSearchIcon    = rpa.Img("botoes", "lupa.png")
	imgMaximize      = rpa.Img("botoes", "maximizar.png")
	imgSearch        = rpa.Img("botoes", "pesquisar.png")
	imgOK            = rpa.Img("botoes", "ok.png")
	imgRequest       = rpa.Img("botoes", "solicitar_arquivos.png")
	imgTracking      = rpa.Img("botoes", "acompanhamento.png")
	imgDownload      = rpa.Img("botoes", "baixar.png")

	imgComboTaxpayer    = rpa.Img("comboboxes/perfil", "combo_perfil_contribuinte.png")
	imgComboProxy       = rpa.Img("comboboxes/perfil", "combo_perfil_procurador.png")
	imgComboFederal     = rpa.Img("comboboxes/perfil", "combo_perfil_receita_federal.png")
	imgOptionProxy      = rpa.Img("comboboxes/perfil", "opcao_procurador.png")
	imgOptionFederal    = rpa.Img("comboboxes/perfil", "opcao_receita_federal.png")
	imgComboDocKind     = rpa.Img("comboboxes/tipo_doc", "combo_tipo_doc.png")
	imgOptionCNPJ       = rpa.Img("comboboxes/tipo_doc", "opcao_cnpj.png")
	imgComboSystem      = rpa.Img("comboboxes/sistema", "combo_sistema.png")
	imgComboFile        = rpa.Img("comboboxes/arquivo", "combo_arquivo.png")
	imgOptionBookkeep   = rpa.Img("comboboxes/arquivo", "opcao_escrituracao.png")
	imgOptionFiscalFile = rpa.Img("comboboxes/arquivo", "opcao_escrituracao_fiscal_digital.png")
	imgOptionLedgerFile = rpa.Img("comboboxes/arquivo", "opcao_escrituracao_contabil_digital.png")
	imgComboQuery       = rpa.Img("comboboxes/pesquisa", "combo_pesquisa.png")
	imgOptionPeriod     = rpa.Img("comboboxes/pesquisa", "opcao_periodo_escrituracao.png")

	imgCNPJInput = rpa.Img("inputs", "cnpj_input.png")
	imgPINInput  = rpa.Img("inputs", "pin_input.png")

	imgNoResults = rpa.Img("modais", "modal_sem_resultados.png")
	imgNoFile    = rpa.Img("modais", "modal_nenhum_arquivo_encontrado.png")
	imgRequested = rpa.Img("modais", "modal_sucesso.png")

	imgStartColumn    = rpa.Img("tabelas", "coluna_data_inicio.png")
	imgStartColumnAlt = rpa.Img("tabelas", "coluna_data_inicio_truncada.png")
	imgSentColumn     = rpa.Img("tabelas", "coluna_transmissao.png")
	imgLastRequest    = rpa.Img("tabelas", "ultima_solicitacao.png")
	imgDownloadQueue  = rpa.Img("tabelas", "fila_de_downloads.png")

	imgCheckbox    = rpa.Img("checkboxes", "checkbox.png")
	imgRowSelected = rpa.Img("checkboxes", "checkbox_linha_selecionada.png")
	imgSelectAll   = rpa.Img("checkboxes", "checkbox_todos.png")
)

func certificateImage(name string) rpa.Image {
	return rpa.Img("certificados", name+".png")
}

func rowImage(month time.Time) rpa.Image {
	return rpa.Img("tabelas", dates.RowTemplate(month))
}

// RequiredImages lists every template a run over types needs, sorted by path.
// months adds the row templates; pass nil when rows are read by OCR.
func RequiredImages(types []DocType, certificate string, months []time.Time) []rpa.Image {
	set := map[rpa.Image]bool{}
	add := func(imgs ...rpa.Image) {
		for _, i := range imgs {
			set[i] = true
		}
	}

	add(imgIcon, imgQuit, imgClose, imgCloseAlt, imgEnter, imgProfileIcon, imgSwitchProfile,
		imgComboTaxpayer, imgComboProxy, imgComboFederal, imgOptionProxy, imgOptionFederal,
		imgComboDocKind, imgOptionCNPJ, imgCNPJInput, certificateImage(certificate))

	if len(types) > 0 {
		add(imgMaximize, imgSearchIcon, imgComboSystem, imgComboFile, imgSearch, imgOK,
			imgNoResults, imgNoFile, imgRequest, imgRequested,
			imgTracking, imgLastRequest, imgSelectAll, imgDownload, imgDownloadQueue)
	}
	rows := false
	for _, t := range types {
		add(t.systemOption())
		switch t {
		case SpedContribuicoes, SpedECF:
			add(imgOptionBookkeep, imgComboQuery, imgOptionPeriod)
			rows = true
		case SpedFiscal:
			add(imgOptionFiscalFile, imgCheckbox)
		case SpedContabil:
			add(imgOptionLedgerFile)
			rows = true
		}
	}
	if rows {
		add(imgStartColumn, imgSentColumn, imgRowSelected)
		for _, m := range months {
			add(rowImage(m))
		}
	}

	out := make([]rpa.Image, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].String() < out[b].String() })
	return out
}
