package importer

// modules.go registers the closed set of ledger modules with their
// template columns. Headers are the domain language of the source
// spreadsheets; the comment-row heuristic keys off the note column and the
// per-module identifier fields.

// Template column headers.
const (
	colNote = "备注"

	colProjectCode = "项目编号"
	colProjectName = "项目名称"

	colProcCode      = "采购编号"
	colProcName      = "采购名称"
	colBudgetAmount  = "预算金额"
	colWinningAmount = "中标金额"
	colResultDate    = "中标日期"

	colContractCode   = "合同编号"
	colContractName   = "合同名称"
	colContractSeq    = "合同序号"
	colPositioning    = "文件定位"
	colContractSource = "合同来源"
	colSourceCode     = "来源编号"
	colParentSeq      = "主合同序号"
	colPartyA         = "甲方"
	colPartyB         = "乙方"
	colSignedAt       = "签订日期"
	colContractAmount = "合同金额"
	colPaymentMethod  = "付款方式"
	colArchivedAt     = "归档日期"

	colPaymentAmount = "付款金额"
	colPaidAt        = "付款日期"

	colEvalCode    = "评价编号"
	colScore       = "评分"
	colEvaluatedAt = "评价日期"

	colSettlementPrice = "结算价"
	colSettled         = "是否办理结算"
)

func init() {
	RegisterModule(ModuleDefinition{
		Module:     ModuleProject,
		Columns:    []string{colProjectCode, colProjectName, colNote},
		HeaderKey:  colProjectCode,
		NoteColumn: colNote,
		KeyFields:  []string{colProjectCode, colProjectName},
		New:        newProjectImporter,
	})

	RegisterModule(ModuleDefinition{
		Module: ModuleProcurement,
		Columns: []string{
			colProcCode, colProcName, colProjectCode,
			colBudgetAmount, colWinningAmount, colResultDate, colNote,
		},
		HeaderKey:  colProcCode,
		NoteColumn: colNote,
		KeyFields:  []string{colProcCode, colProcName, colProjectCode},
		New:        newProcurementImporter,
	})

	RegisterModule(ModuleDefinition{
		Module: ModuleContract,
		Columns: []string{
			colContractCode, colContractName, colContractSeq, colPositioning,
			colContractSource, colSourceCode, colParentSeq, colProjectCode,
			colPartyA, colPartyB, colSignedAt, colContractAmount,
			colPaymentMethod, colArchivedAt, colNote,
		},
		HeaderKey:  colContractCode,
		NoteColumn: colNote,
		KeyFields:  []string{colContractCode, colContractName, colContractSeq},
		New:        newContractImporter,
	})

	RegisterModule(ModuleDefinition{
		Module: ModulePayment,
		Columns: []string{
			colContractSeq, colContractCode, colPaymentAmount, colPaidAt, colNote,
		},
		HeaderKey:  colContractSeq,
		NoteColumn: colNote,
		KeyFields:  []string{colContractSeq, colContractCode},
		New:        newPaymentImporter,
	})

	RegisterModule(ModuleDefinition{
		Module: ModuleEvaluation,
		Columns: []string{
			colEvalCode, colContractCode, colScore, colEvaluatedAt, colNote,
		},
		HeaderKey:  colEvalCode,
		NoteColumn: colNote,
		KeyFields:  []string{colEvalCode, colContractCode},
		New:        newEvaluationImporter,
	})
}
