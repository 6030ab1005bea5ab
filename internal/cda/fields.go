package cda

// SchemaVersion identifies the rename table below. Bump it whenever an entry
// changes so cached or exported data can be told apart.
const SchemaVersion = "cda-fi-v1"

// Canonical field names used by the pipeline.
const (
	FieldFundType           = "Tipo Fundo"
	FieldFundID             = "CNPJ Fundo"
	FieldFundName           = "Denominação Social"
	FieldCompetency         = "Data Competência"
	FieldDocumentID         = "ID Documento"
	FieldNetAssetValue      = "Patrimônio Líquido"
	FieldCategory           = "Tipo Aplicação"
	FieldAssetType          = "Tipo Ativo"
	FieldMarketValue        = "Valor Mercado Posição Final"
	FieldAssetCode          = "Código Ativo"
	FieldAssetDescription   = "Descrição Ativo"
	FieldMaturity           = "Data Vencimento"
	FieldIssuerDocument     = "CPF/CNPJ Emissor"
	FieldIssuer             = "Emissor"
	FieldPublicSecurityType = "Tipo Título Público"
	FieldIssueDate          = "Data Emissão"
	FieldQuotaFundID        = "CNPJ Fundo Cota"
	FieldQuotaFundName      = "Nome Fundo Cota"
	FieldIssuerCNPJ         = "CNPJ Emissor"
	FieldPostFixedSecurity  = "Título Pós-Fixado"
)

// FieldRenames maps raw CDA column identifiers to canonical names. Raw columns
// without an entry are dropped during normalization.
var FieldRenames = map[string]string{
	"TP_FUNDO":                      FieldFundType,
	"CNPJ_FUNDO":                    FieldFundID,
	"DENOM_SOCIAL":                  FieldFundName,
	"DT_COMPTC":                     FieldCompetency,
	"ID_DOC":                        FieldDocumentID,
	"VL_PATRIM_LIQ":                 FieldNetAssetValue,
	"TP_APLIC":                      FieldCategory,
	"TP_ATIVO":                      FieldAssetType,
	"EMISSOR_LIGADO":                "Emissor Ligado",
	"TP_NEGOC":                      "Tipo Negociação",
	"QT_VENDA_NEGOC":                "Quantidade Venda Negociada",
	"VL_VENDA_NEGOC":                "Valor Venda Negociada",
	"QT_AQUIS_NEGOC":                "Quantidade Aquisição Negociada",
	"VL_AQUIS_NEGOC":                "Valor Aquisição Negociada",
	"QT_POS_FINAL":                  "Quantidade Posição Final",
	"VL_MERC_POS_FINAL":             FieldMarketValue,
	"VL_CUSTO_POS_FINAL":            "Valor Custo Posição Final",
	"DT_CONFID_APLIC":               "Data Confidencial Aplicação",
	"CD_ATIVO":                      FieldAssetCode,
	"DS_ATIVO":                      FieldAssetDescription,
	"DT_VENC":                       FieldMaturity,
	"PF_PJ_EMISSOR":                 "Pessoa Física/Jurídica Emissor",
	"CPF_CNPJ_EMISSOR":              FieldIssuerDocument,
	"EMISSOR":                       FieldIssuer,
	"RISCO_EMISSOR":                 "Risco Emissor",
	"CD_SELIC":                      "Código Selic",
	"DT_INI_VIGENCIA":               "Data Início Vigência",
	"CD_PAIS":                       "Código País",
	"PAIS":                          "País",
	"CD_BV_MERC":                    "Código BV Mercado",
	"BV_MERC":                       "BV Mercado",
	"TP_TITPUB":                     FieldPublicSecurityType,
	"CD_ISIN":                       "Código ISIN",
	"DT_EMISSAO":                    FieldIssueDate,
	"CNPJ_FUNDO_COTA":               FieldQuotaFundID,
	"NM_FUNDO_COTA":                 FieldQuotaFundName,
	"CD_SWAP":                       "Código Swap",
	"DS_SWAP":                       "Descrição Swap",
	"DT_FIM_VIGENCIA":               "Data Fim Vigência",
	"CNPJ_EMISSOR":                  FieldIssuerCNPJ,
	"TITULO_POSFX":                  FieldPostFixedSecurity,
	"CD_INDEXADOR_POSFX":            "Código Indexador Pós-Fixado",
	"DS_INDEXADOR_POSFX":            "Descrição Indexador Pós-Fixado",
	"PR_INDEXADOR_POSFX":            "Percentual Indexador Pós-Fixado",
	"PR_CUPOM_POSFX":                "Percentual Cupom Pós-Fixado",
	"PR_TAXA_PREFX":                 "Percentual Taxa Pré-Fixada",
	"AG_RISCO":                      "Agência de Risco",
	"DT_RISCO":                      "Data Risco",
	"GRAU_RISCO":                    "Grau de Risco",
	"TITULO_CETIP":                  "Título Cetip",
	"TITULO_GARANTIA":               "Título Garantia",
	"CNPJ_INSTITUICAO_FINANC_COOBR": "CNPJ Instituição Financeira Coobrigada",
	"INVEST_COLETIVO":               "Investimento Coletivo",
	"INVEST_COLETIVO_GESTOR":        "Gestor Investimento Coletivo",
	"CD_ATIVO_BV_MERC":              "Código Ativo BV Mercado",
	"DS_ATIVO_EXTERIOR":             "Descrição Ativo Exterior",
	"QT_ATIVO_EXTERIOR":             "Quantidade Ativo Exterior",
	"VL_ATIVO_EXTERIOR":             "Valor Ativo Exterior",
}

// DefaultColumns is the reduced projection kept by the pipeline: the
// identification, valuation and classification fields. Trading volumes,
// risk ratings and index details are left out.
var DefaultColumns = []string{
	FieldFundType,
	FieldFundID,
	FieldFundName,
	FieldCompetency,
	FieldDocumentID,
	FieldNetAssetValue,
	FieldCategory,
	FieldAssetType,
	FieldMarketValue,
	FieldAssetCode,
	FieldAssetDescription,
	FieldMaturity,
	FieldIssuerDocument,
	FieldIssuer,
	FieldPublicSecurityType,
	FieldIssueDate,
	FieldQuotaFundID,
	FieldQuotaFundName,
	FieldIssuerCNPJ,
	FieldPostFixedSecurity,
}

// CanonicalName returns the canonical name for a raw column identifier.
func CanonicalName(raw string) (string, bool) {
	name, ok := FieldRenames[raw]
	return name, ok
}
