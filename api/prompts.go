package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/papercomputeco/catalyst/pkg/workshop"
)

const evaluateTopicPrompt = `你是一位行动学习催化师AI助手。请评估用户提交的课题质量。

请严格按照以下JSON格式返回评估结果，不要添加任何额外文字：
{
  "totalScore": <1-10的整数>,
  "dimensions": {
    "focus": <1-10>,
    "resultOriented": <1-10>,
    "singleIssue": <1-10>,
    "uncertainty": <1-10>,
    "controllability": <1-10>,
    "learning": <1-10>
  },
  "suggestions": ["建议1", "建议2", "建议3"],
  "examples": [
    {"title": "示例课题1", "description": "简短描述"},
    {"title": "示例课题2", "description": "简短描述"},
    {"title": "示例课题3", "description": "简短描述"}
  ]
}

评估维度说明：
- focus(聚焦性): 课题是否足够具体聚焦
- resultOriented(结果导向): 是否有明确期望的结果
- singleIssue(单一议题): 是否聚焦在一个核心问题上
- uncertainty(未知性): 是否存在需要探索的未知领域
- controllability(可控性): 案主是否有能力影响结果
- learning(学习性): 是否有学习和成长的空间`

const preMortemPrompt = `你是一位行动学习催化师AI助手，擅长进行"事前验尸"分析。

请基于用户提交的课题，进行风险预警分析。严格按照以下JSON格式返回：
{
  "warning": "一段200字左右的风险预警描述，描述如果延续当前策略，可能面临的最坏结果",
  "riskFactors": ["风险因素1", "风险因素2", "风险因素3"],
  "focusAreas": ["建议研讨重点关注领域1", "建议研讨重点关注领域2"]
}`

const classifyQuestionPrompt = `你是一位行动学习催化师AI助手。请将提问分类到5F维度中的一个。

5F维度：
- fact(事实类): 关于客观数据、事实信息的提问
- feeling(感受类): 关于情感、感受、体验的提问
- finding(分析类): 关于原因分析、深层思考的提问
- future(行动类): 关于未来行动、解决方案的提问
- focus(聚焦类): 帮助聚焦核心问题的提问

同时判断提问质量，如果是封闭式提问，给出开放式改写建议。

严格按以下JSON格式返回：
{
  "category": "fact|feeling|finding|future|focus",
  "categoryLabel": "事实类|感受类|分析类|行动类|聚焦类",
  "isClosed": true/false,
  "suggestion": "如果是封闭式提问，给出改写建议，否则为null"
}`

// %s is the comma separated list of missing dimensions.
const shadowQuestionsPrompt = `你是一位行动学习催化师AI助手。团队提问风暴中检测到某些维度严重缺失，请针对缺失维度生成2-3个高质量的补充提问（影子提问）。

缺失维度：%s

维度说明：
- fact(事实类): 关于客观数据、事实信息
- feeling(感受类): 关于情感、感受、体验
- finding(分析类): 关于原因分析、深层思考
- future(行动类): 关于未来行动、解决方案
- focus(聚焦类): 帮助聚焦核心问题

严格按以下JSON格式返回：
{
  "missingAlert": "一句话描述检测到的盲区",
  "questions": [
    {"text": "提问内容", "category": "维度英文", "categoryLabel": "维度中文"},
    {"text": "提问内容", "category": "维度英文", "categoryLabel": "维度中文"},
    {"text": "提问内容", "category": "维度英文", "categoryLabel": "维度中文"}
  ]
}`

const summaryPrompt = `你是一位行动学习催化师AI助手。请生成一份完整的研讨总结报告。

请以Markdown格式输出，包含以下部分：
1. 研讨课题概述
2. 黄金问题回顾
3. 核心洞察
4. 行动计划摘要
5. 后续建议

语言风格：专业、简洁、有洞察力。`

// missingThreshold is the radar count below which a dimension is a blind spot.
const missingThreshold = 2

func evaluateTopicMessage(t workshop.Topic) string {
	return fmt.Sprintf("课题名称：%s\n背景现状：%s\n核心痛点：%s\n已尝试行动：%s",
		t.Title, t.Background, t.PainPoints, t.TriedActions)
}

func preMortemMessage(t workshop.Topic) string {
	return fmt.Sprintf("课题：%s\n背景：%s\n痛点：%s", t.Title, t.Background, t.PainPoints)
}

func classifyQuestionMessage(req workshop.ClassifyRequest) string {
	return fmt.Sprintf("课题背景：%s\n提问：%s", req.TopicContext, req.Question)
}

func shadowQuestionsSystem(radar *workshop.RadarData) string {
	var missing []string
	if radar != nil {
		for _, c := range radar.Missing(missingThreshold) {
			missing = append(missing, string(c))
		}
	}
	return fmt.Sprintf(shadowQuestionsPrompt, strings.Join(missing, ", "))
}

func shadowQuestionsMessage(req workshop.ShadowRequest) (string, error) {
	existing := req.ExistingQuestions
	if existing == nil {
		existing = []string{}
	}

	b, err := json.Marshal(existing)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("课题背景：%s\n已有提问：%s", req.TopicContext, b), nil
}

func summaryMessage(req workshop.SummaryRequest) (string, error) {
	topic, err := json.Marshal(req.Topic)
	if err != nil {
		return "", err
	}
	golden, err := json.Marshal(req.GoldenQuestions)
	if err != nil {
		return "", err
	}
	reflections, err := json.Marshal(req.Reflections)
	if err != nil {
		return "", err
	}
	plan, err := json.Marshal(req.ActionPlan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("课题：%s\n黄金问题：%s\n反思记录：%s\n行动计划：%s", topic, golden, reflections, plan), nil
}
